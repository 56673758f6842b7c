// Package main provides the entry point for the arvault API server
//
// @title arvault API
// @version 1.1.0
// @description Assessment report acquisition service - discovers, downloads and files geoscience assessment report documents
// @host localhost:8080
// @BasePath /
// @schemes http https
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/borealgeo/arvault/domain/health"
	"github.com/borealgeo/arvault/domain/reports"
	"github.com/borealgeo/arvault/domain/tracing"
	"github.com/borealgeo/arvault/domain/unlock"
	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/internal/fetch"
	"github.com/borealgeo/arvault/internal/server"
	"github.com/borealgeo/arvault/internal/storage"
	"github.com/borealgeo/arvault/pkg/logger"
)

func main() {
	// Load .env files if present (for local development)
	// Note: Load() won't overwrite existing vars, Overload() will
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		// Logging
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		server.Module,
		storage.Module,
		fetch.Module,
		tracing.Module,

		// Domain modules
		health.Module,
		reports.Module,
		unlock.Module,
	).Run()
}
