// Package logger builds the process-wide slog logger for DealDesk.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/soladex/dealdesk/internal/config"
)

// New returns a JSON logger writing to stdout. Every record carries the
// configured service name so deal events can be separated from the
// directory and invoicing subsystems in a shared log stream.
func New(cfg config.Logging) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	return slog.New(handler).With("service", cfg.Service)
}

// parseLevel maps a config level string to slog.Level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
