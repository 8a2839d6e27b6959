package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/records"
	"fintrack/internal/repository"
	"fintrack/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig("fintrack")
	logger.Info("Starting fintrack", log.FieldBackend, cfg.DataBackend)

	store := cli.InitBackend(context.Background(), cfg, logger)
	defer store.Close()

	opts := []records.AdapterOption{records.WithNotifier(notify.NewDispatcher(logger))}

	// Change events are optional; without a broker budgets are refreshed
	// through POST /api/v1/budgets/recompute or the worker's ticker.
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, records.WithPublisher(publisher))
		logger.Info("Publishing record changes", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	adapter := records.NewAdapter(store.Store, logger, opts...)
	repos := repository.NewSet(adapter, logger)

	if cfg.SeedDefaults {
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if n := repos.Categories.SeedDefaults(seedCtx); n > 0 {
			logger.Info("Default categories created", log.FieldCount, n)
		}
		cancel()
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Repos:    repos,
		Summary:  services.NewSummaryService(repos, logger),
		Sync:     services.NewSpentSync(repos, logger, cfg.RecomputeInterval),
		Exporter: services.NewExporter(repos, logger),
	}, apphttp.Options{
		GinMode:           cfg.GinMode,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting HTTP server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
