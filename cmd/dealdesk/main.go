package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soladex/dealdesk/internal/adapter/directoryhttp"
	ddhttp "github.com/soladex/dealdesk/internal/adapter/http"
	"github.com/soladex/dealdesk/internal/adapter/invoicehttp"
	ddnats "github.com/soladex/dealdesk/internal/adapter/nats"
	"github.com/soladex/dealdesk/internal/adapter/otel"
	"github.com/soladex/dealdesk/internal/adapter/postgres"
	"github.com/soladex/dealdesk/internal/adapter/ristretto"
	"github.com/soladex/dealdesk/internal/adapter/ws"
	"github.com/soladex/dealdesk/internal/config"
	"github.com/soladex/dealdesk/internal/logger"
	"github.com/soladex/dealdesk/internal/middleware"
	"github.com/soladex/dealdesk/internal/service"
)

const serviceName = "dealdesk"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"telemetry", cfg.Telemetry.Enabled,
	)

	ctx := context.Background()

	// --- Observability ---
	shutdownTelemetry, err := otel.Setup(ctx, cfg.Telemetry, serviceName)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	queue, err := ddnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()
	slog.Info("nats connected", "url", cfg.NATS.URL)

	dirCache, err := ristretto.New(cfg.Directory.CacheMaxBytes)
	if err != nil {
		return fmt.Errorf("directory cache: %w", err)
	}
	defer dirCache.Close()

	dir := directoryhttp.New(cfg.Directory, cfg.Breaker, dirCache)
	issuer := invoicehttp.New(cfg.Invoicing, cfg.Breaker)

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	resolver := service.NewResolver(dir, cfg.Directory.MaxParallel)

	handlers := ddhttp.NewHandlers(
		service.NewPipelineService(store),
		service.NewDealService(store, queue, hub, metrics, resolver),
		service.NewActivityService(store),
		service.NewAnalyticsService(store),
		service.NewConvertService(store, issuer, queue, hub, metrics, cfg.Invoicing.VATRate),
	)

	// --- HTTP ---
	r := chi.NewRouter()

	r.Use(ddhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ddhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(serviceName))
	}
	r.Use(middleware.Actor)

	r.Get("/health", healthHandler(pool, queue))
	r.Get("/ws", hub.HandleWS)

	ddhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	if err := queue.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports liveness of the process and its backing services.
func healthHandler(pool *pgxpool.Pool, queue *ddnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok", NATS: "ok"}
		code := http.StatusOK

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if !queue.IsConnected() {
			status.Status = "degraded"
			status.NATS = "disconnected"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
