package main

import (
	"context"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/records"
	"fintrack/internal/repository"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig("fintrack-worker")
	logger.Info("Starting fintrack-worker", log.FieldBackend, cfg.DataBackend)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store := cli.InitBackend(context.Background(), cfg, logger)
	defer store.Close()

	// The worker only writes spent amounts; it does not publish changes so
	// its own updates never loop back into the queue.
	adapter := records.NewAdapter(store.Store, logger, records.WithNotifier(notify.NewDispatcher(logger)))
	repos := repository.NewSet(adapter, logger)
	spentSync := services.NewSpentSync(repos, logger, cfg.RecomputeInterval)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewChangeWorker(spentSync, amqpClient, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := spentSync.Stop(ctx); err != nil {
			logger.Error("Spent sync shutdown error", log.FieldError, err)
		}
	})

	if err := w.StartupRecompute(ctx); err != nil {
		logger.Warn("Continuing without startup recompute", log.FieldError, err)
	}
	if err := spentSync.Start(ctx); err != nil {
		logger.Error("Failed to start periodic recompute", log.FieldError, err)
		os.Exit(1)
	}

	if err := w.Run(ctx); err != nil {
		logger.Error("Change consumption stopped", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
