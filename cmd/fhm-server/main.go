package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"fhm/internal/backend"
	"fhm/internal/cli"
	apphttp "fhm/internal/http"
	"fhm/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Setup structured logging
	logger := cli.SetupLogger()

	// Load and validate configuration
	cfg := cli.LoadAndValidateConfig(logger)

	// Build the storage backend and the optional AMQP publisher
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}

	// A nil *amqp.Client must not end up in the interface value, or the
	// service's nil check would never fire.
	var publisher services.JobPublisher
	if result.Publisher != nil {
		publisher = result.Publisher
	}
	ingest := services.NewIngestService(result.Recorder, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, result.Recorder, ingest, logger, apphttp.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	// Graceful shutdown handling
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting fhm server",
		"port", cfg.Port,
		"backend", backendCfg.Type,
		"async_ingest", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
