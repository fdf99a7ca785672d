package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger writing to stdout.
func New(logLevel string, json bool) *slog.Logger {
	return NewWithWriter(os.Stdout, logLevel, json)
}

func NewWithWriter(w io.Writer, logLevel string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel), AddSource: true}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
