package main

import (
	"context"
	"os"
	"time"

	"beautystats/internal/amqp"
	"beautystats/internal/backend"
	"beautystats/internal/cache"
	"beautystats/internal/cli"
	"beautystats/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume the mail queue")
		os.Exit(1)
	}

	logger.Info("Starting mail-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	// The worker delivers what the API queued, so it never publishes back.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mail backend configuration", "error", err)
		os.Exit(1)
	}
	backendCfg.Type = backend.LogBackend
	if cfg.SMTPHost != "" {
		backendCfg.Type = backend.SMTPBackend
	}
	delivery, err := backend.NewFactory(logger).CreateSender(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize mail delivery", "error", err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	mailWorker := worker.NewMailWorker(delivery.Sender, 1024, time.Hour)
	caches := cache.NewManager()
	caches.Register("delivered", mailWorker.Delivered())
	caches.StartCleanup(10 * time.Minute)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	consume := func(ctx context.Context) error {
		return client.ConsumeMail(ctx, mailWorker.HandleMailMessage)
	}
	if err := worker.Run(ctx, consume, caches.Stop); err != nil {
		logger.Error("Mail consumption stopped", "error", err)
		if cerr := client.Close(); cerr != nil {
			logger.Error("AMQP close error", "error", cerr)
		}
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Mail worker stopped")
}
