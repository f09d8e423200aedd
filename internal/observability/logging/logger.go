package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stdout, service, level)
}

// NewJSONLoggerTo is for processes whose stdout carries a protocol
// (stdio transports) and must keep logs on another stream.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
