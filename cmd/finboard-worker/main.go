package main

import (
	"context"
	"errors"
	"os"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	"finboard/internal/log"
	"finboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting finboard-worker")

	if cfg.SnapshotDBPath == "" {
		logger.Error("SNAPSHOT_DB_PATH is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext()
	defer stop()

	backend := cli.InitBackend(ctx, logger, cfg)
	snaps := cli.OpenSnapshot(logger, cfg.SnapshotDBPath)
	defer snaps.Close()

	syncWorker := worker.NewSyncWorker(backend, snaps, logger)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer client.Close()

		go func() {
			if err := client.Consume(ctx, syncWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
				stop()
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on periodic sync only", "interval", cfg.SyncInterval.String())
	}

	if err := syncWorker.Run(ctx, cfg.SyncInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err.Error())
		os.Exit(1)
	}

	stats := syncWorker.Stats()
	logger.Info("Worker shutdown complete", "syncs", stats.Syncs, "failures", stats.Failures, "events", stats.Events)
}
