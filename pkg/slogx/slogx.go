package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config drives logger construction. Level and Format are free-form strings
// straight from the environment; unrecognised values fall back to info/json.
type Config struct {
	Service string
	Level   string // "debug", "info", "warn", "error"
	Format  string // "json", "text"

	// Output defaults to os.Stdout. Tests swap in a buffer.
	Output io.Writer
}

// New builds a slog.Logger per cfg and installs it as the process default.
// Debug level also enables source locations, since that is the only mode
// where the extra cost pays for itself.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}

	slog.SetDefault(logger)
	return logger
}

func parseLevel(lvl string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		return slog.LevelInfo
	}
	return level
}
