package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fhm/internal/amqp"
	"fhm/internal/cli"
	"fhm/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Setup structured logging
	logger := cli.SetupLogger()

	logger.Info("Starting fhm-worker")

	// Load and validate configuration
	cfg := cli.LoadAndValidateConfig(logger)

	// The worker re-parses stored payloads, so it talks to SQLite
	// directly regardless of the configured data backend.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Initialize AMQP client for consuming ingest jobs
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ingestWorker := worker.NewIngestWorker(repo)

	sweeperCfg := worker.DefaultSweeperConfig()
	sweeperCfg.Interval = cfg.SweepInterval
	sweeperCfg.Age = cfg.SweepAge
	sweeper := worker.NewSweeper(repo, amqpClient, sweeperCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Consume ingest jobs until the context is cancelled
	g.Go(func() error {
		return amqpClient.ConsumeIngestJobs(gctx, func(job *amqp.IngestJob) error {
			return ingestWorker.HandleIngestJob(gctx, job)
		})
	})

	// Requeue uploads left stuck by crashes or lost deliveries
	g.Go(func() error {
		if err := sweeper.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return sweeper.Stop(stopCtx)
	})

	logger.Info("Worker started",
		"queue", cfg.AMQPQueue,
		"sweep_interval", cfg.SweepInterval,
		"sweep_age", cfg.SweepAge)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
