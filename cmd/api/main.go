// Command api is the cruxlog HTTP server.
//
// Usage:
//
//	cruxlog-api
//	API_PORT=8080 DATABASE_URL=postgres://... cruxlog-api

// @title cruxlog API
// @version 1.0.0
// @description Climbing logbook sync: imports ticks from Mountain Project and 8a.nu, classifies them, and serves performance pyramids and grade conversions.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name cruxlog
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/cruxlog/internal/api"
	"github.com/albapepper/cruxlog/internal/api/handler"
	"github.com/albapepper/cruxlog/internal/app"
	"github.com/albapepper/cruxlog/internal/cache"
	"github.com/albapepper/cruxlog/internal/config"

	_ "github.com/albapepper/cruxlog/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Open store and build the pipeline
	logger.Info("Connecting to database...")
	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled, cfg.CacheTTL)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	// Create router
	router := api.NewRouter(handler.Deps{
		Store:  a.Store,
		Grades: a.Grades,
		Syncer: a.Orchestrator,
		Cache:  appCache,
		Logger: logger,
	}, a.Metrics.Handler(), cfg)

	// Create HTTP server. Syncs run inline, so the write timeout covers a
	// full browser session against 8a.nu.
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.EightATimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting cruxlog API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
