package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tmokoena/rentpilot-backend/internal/billing"
	"github.com/tmokoena/rentpilot-backend/internal/cron"
	"github.com/tmokoena/rentpilot-backend/internal/gatewaycustomers"
	"github.com/tmokoena/rentpilot-backend/internal/tenants"
	"github.com/tmokoena/rentpilot-backend/pkg/config"
	"github.com/tmokoena/rentpilot-backend/pkg/db"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/metrics"
	"github.com/tmokoena/rentpilot-backend/pkg/migrate"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/redis"
)

const lockKeyFormat = "rp:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paystackOpts := []paystack.Option{
		paystack.WithHTTPClient(&http.Client{Timeout: cfg.Paystack.Timeout}),
	}
	if cfg.Paystack.BaseURL != "" {
		paystackOpts = append(paystackOpts, paystack.WithBaseURL(cfg.Paystack.BaseURL))
	}
	paystackClient, err := paystack.NewClient(cfg.Paystack.SecretKey, paystackOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	customers, err := gatewaycustomers.NewService(paystackClient, tenants.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway customer service", err)
		os.Exit(1)
	}

	invoiceJob, err := cron.NewRecurringInvoiceJob(cron.RecurringInvoiceJobParams{
		Logger:          logg,
		BillingRepo:     billing.NewRepository(dbClient.DB()),
		Customers:       customers,
		Gateway:         paystackClient,
		Metrics:         metrics.NewBillingMetrics(prometheus.DefaultRegisterer),
		LookaheadDays:   cfg.Billing.LookaheadDays,
		BatchSize:       cfg.Billing.BatchSize,
		CallDelay:       cfg.Billing.CallDelay,
		MaxAttempts:     cfg.Billing.MaxAttempts,
		EvalConcurrency: cfg.Billing.EvalConcurrency,
		DefaultCurrency: cfg.Billing.DefaultCurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create recurring invoice job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(invoiceJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
