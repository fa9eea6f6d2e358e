package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/xrkiosk/internal/api"
	"github.com/mcoot/xrkiosk/internal/config"
	"github.com/mcoot/xrkiosk/internal/factory"
)

const maintenanceInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.ConfigFromEnv(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("closing storage failed", slog.String("error", err.Error()))
		}
	}()

	if !app.AuthService.Enabled() {
		logger.Warn("STAFF_PIN_HASH is not set; staff routes are open")
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Kiosks:      app.Kiosks,
		Storage:     app.Storage,
		Blobs:       app.Blobs,
	})

	// Create server
	server := api.NewServer(router, api.ServerConfigFrom(cfg), logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.Kiosks.RunPruner(ctx, maintenanceInterval)
	go cleanStaffSessions(ctx, app, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", cfg.Addr()),
		slog.String("store_id", cfg.StoreID),
		slog.String("storage", cfg.StorageType),
		slog.String("blobs", cfg.BlobType))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

func cleanStaffSessions(ctx context.Context, app *factory.App, logger *slog.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := app.AuthService.CleanExpiredSessions(); n > 0 {
				logger.Debug("expired staff sessions removed", slog.Int("count", n))
			}
		}
	}
}
