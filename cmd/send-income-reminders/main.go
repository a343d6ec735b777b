// Command send-income-reminders mails every salon manager who has not yet
// entered last month's income. It is meant to run from a scheduler once a
// month.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"beautystats/internal/backend"
	"beautystats/internal/cli"
	"beautystats/internal/mail"
	"beautystats/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mail backend configuration", "error", err)
		return 1
	}
	mailBackend, err := backend.NewFactory(logger).CreateSender(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize mail backend", "error", err, "backend", cfg.MailBackend)
		return 1
	}
	if mailBackend.Cleanup != nil {
		defer mailBackend.Cleanup()
	}

	composer, err := mail.NewComposer(cfg.MailFrom)
	if err != nil {
		logger.Error("Failed to load mail templates", "error", err)
		return 1
	}

	scanner := services.NewReminderScanner(repo, composer, mailBackend.Sender, cfg.ReminderConcurrency)
	summary, err := scanner.Run(ctx)
	fmt.Printf("Sent %d reminders to salon managers.\n", summary.Sent)
	if err != nil {
		logger.Error("Reminder run incomplete", "error", err, "failed", summary.Failed)
		return 1
	}
	return 0
}
