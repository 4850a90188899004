package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// Config carries the identity and verbosity of the process-wide logger.
// Level and Format arrive as free-form strings from the environment;
// anything unrecognised falls back to info-level JSON.
type Config struct {
	Service string
	Version string
	Env     string // "dev" adds source locations to every record
	Level   string // "debug", "info", "warn", "error"
	Format  string // "json" or "text"
}

// New builds the onboarding service logger, stamps every record with the
// service identity, and installs it as the slog default so package-level
// logging stays consistent with the wired logger.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: cfg.Env == "dev",
		Level:     parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)

	slog.SetDefault(logger)
	return logger
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
