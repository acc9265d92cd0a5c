package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init builds the process-wide slog logger and installs it as the default.
// format is "json" or "text"; anything else falls back to text.
func Init(format string, level slog.Level) *slog.Logger {
	logger := New(os.Stderr, format, level)
	slog.SetDefault(logger)
	return logger
}

// New returns a logger writing to w.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
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
