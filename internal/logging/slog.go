package logging

import (
	"io"
	"log/slog"

	"github.com/ayush/todo-api/internal/config"
)

// New builds the process logger for env: text at debug level locally,
// JSON at debug level in dev, JSON at info level in prod.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

// Err is shorthand for the error attribute used across handlers.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
