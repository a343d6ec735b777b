package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"beautystats/internal/auth"
	"beautystats/internal/backend"
	"beautystats/internal/cache"
	"beautystats/internal/cli"
	"beautystats/internal/core"
	apphttp "beautystats/internal/http"
	"beautystats/internal/log"
	"beautystats/internal/mail"
	"beautystats/internal/middleware/ratelimit"
	"beautystats/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateAuth(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting beautystats API", "port", cfg.Port, "mail_backend", cfg.MailBackend)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mail backend configuration", "error", err)
		os.Exit(1)
	}
	mailBackend, err := backend.NewFactory(logger).CreateSender(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize mail backend", "error", err, "backend", cfg.MailBackend)
		os.Exit(1)
	}

	composer, err := mail.NewComposer(cfg.MailFrom)
	if err != nil {
		logger.Error("Failed to load mail templates", "error", err)
		os.Exit(1)
	}

	// Departments never change at runtime; the TTL only bounds memory.
	departments := cache.NewLRUCache[core.Department](128, 24*time.Hour)
	caches := cache.NewManager()
	caches.Register("departments", departments)
	caches.StartCleanup(10 * time.Minute)

	appLogger := log.New(log.Config{Handler: logger.Handler(), Component: log.ComponentApp})
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	resolver := services.NewDepartmentResolver(repo, departments)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Accounts:        services.NewAccountService(repo, resolver, tokens, composer, mailBackend.Sender),
		Incomes:         services.NewIncomeService(repo, appLogger),
		Tokens:          tokens,
		DB:              repo,
		DepartmentCache: departments,
		Logger:          appLogger,
		RateLimit:       ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if mailBackend.Cleanup != nil {
			if err := mailBackend.Cleanup(); err != nil {
				logger.Error("Mail backend cleanup error", "error", err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Error("Database close error", "error", err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
