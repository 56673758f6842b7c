// Package logger provides the application's slog construction and shared
// logging attribute helpers.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"go.uber.org/fx"
)

var Module = fx.Module("logger",
	fx.Provide(NewLogger),
)

// NewLogger creates the root slog.Logger. The level is taken from LOG_LEVEL
// (debug, info, warn/warning, error; default info). In local development
// (GO_ENV unset or "development") output is human-readable text, otherwise JSON.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	env := os.Getenv("GO_ENV")
	var handler slog.Handler
	if env == "" || env == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Scope returns a "scope" attribute used to namespace log lines per component.
func Scope(scope string) slog.Attr {
	return slog.Any("scope", scope)
}

// Error returns an "error" attribute carrying the error value.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}
