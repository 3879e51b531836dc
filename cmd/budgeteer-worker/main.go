package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgeteer/internal/amqp"
	"budgeteer/internal/backend"
	"budgeteer/internal/config"
	applog "budgeteer/internal/log"
	"budgeteer/internal/provider"
	"budgeteer/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	slog.SetDefault(logger.Logger)

	logger.Info("Starting budgeteer-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.ProviderBaseURL == "" {
		logger.Error("PROVIDER_BASE_URL is required for the sync worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	providerClient := provider.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderToken)
	syncWorker := worker.NewSyncWorker(result.Store, providerClient)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheduler := worker.NewScheduler(amqpClient, cfg.SyncUserIDs)
	if len(cfg.SyncUserIDs) > 0 {
		if err := scheduler.Start(cfg.SyncSchedule); err != nil {
			logger.Error("Failed to start sync scheduler", "error", err, "schedule", cfg.SyncSchedule)
			os.Exit(1)
		}
		defer scheduler.Stop()
	} else {
		logger.Info("No scheduled users configured, consuming on demand only")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeSyncRequests(gctx, func(msg *amqp.SyncRequestMessage) error {
			return syncWorker.HandleSyncRequest(gctx, msg.UserID)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
