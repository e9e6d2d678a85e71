package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "dealdesk.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DEALDESK_PORT")
	setString(&cfg.Server.CORSOrigin, "DEALDESK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "DEALDESK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "DEALDESK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "DEALDESK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "DEALDESK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "DEALDESK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Directory.URL, "DEALDESK_DIRECTORY_URL")
	setString(&cfg.Directory.Token, "DEALDESK_DIRECTORY_TOKEN")
	setDuration(&cfg.Directory.CacheTTL, "DEALDESK_DIRECTORY_CACHE_TTL")
	setInt64(&cfg.Directory.CacheMaxBytes, "DEALDESK_DIRECTORY_CACHE_MAX_BYTES")
	setInt(&cfg.Directory.MaxParallel, "DEALDESK_DIRECTORY_MAX_PARALLEL")
	setString(&cfg.Invoicing.URL, "DEALDESK_INVOICING_URL")
	setString(&cfg.Invoicing.Token, "DEALDESK_INVOICING_TOKEN")
	setFloat64(&cfg.Invoicing.VATRate, "DEALDESK_INVOICING_VAT_RATE")
	setString(&cfg.Logging.Level, "DEALDESK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "DEALDESK_LOG_SERVICE")
	setUint32(&cfg.Breaker.MaxFailures, "DEALDESK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "DEALDESK_BREAKER_TIMEOUT")
	setBool(&cfg.Telemetry.Enabled, "DEALDESK_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "DEALDESK_TELEMETRY_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Invoicing.VATRate < 0 || cfg.Invoicing.VATRate > 100 {
		return errors.New("invoicing.vat_rate must be between 0 and 100")
	}
	if cfg.Directory.MaxParallel < 1 {
		return errors.New("directory.max_parallel must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setUint32(dst *uint32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
