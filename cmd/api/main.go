package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tmokoena/rentpilot-backend/api/routes"
	"github.com/tmokoena/rentpilot-backend/internal/billing"
	"github.com/tmokoena/rentpilot-backend/internal/gatewaycustomers"
	"github.com/tmokoena/rentpilot-backend/internal/landlords"
	"github.com/tmokoena/rentpilot-backend/internal/notifications"
	"github.com/tmokoena/rentpilot-backend/internal/tenants"
	paystackwebhook "github.com/tmokoena/rentpilot-backend/internal/webhooks/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/config"
	"github.com/tmokoena/rentpilot-backend/pkg/db"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/migrate"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/pubsub"
	"github.com/tmokoena/rentpilot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
		paystack.WithWebhookSecret(cfg.Paystack.WebhookSecret),
	}
	if cfg.Paystack.BaseURL != "" {
		paystackOpts = append(paystackOpts, paystack.WithBaseURL(cfg.Paystack.BaseURL))
	}
	paystackClient, err := paystack.NewClient(cfg.Paystack.SecretKey, paystackOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	notifierParams := notifications.NotifierParams{
		Repo:   notifications.NewRepository(dbClient.DB()),
		Logger: logg,
	}
	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Warn(context.Background(), "pubsub unavailable, notification fan-out disabled")
	} else {
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		notifierParams.Publisher = pubsubClient.NotificationPublisher()
	}
	notifier, err := notifications.NewNotifier(notifierParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	tenantsRepo := tenants.NewRepository(dbClient.DB())

	customersService, err := gatewaycustomers.NewService(paystackClient, tenantsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway customers service", err)
		os.Exit(1)
	}

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:      billingRepo,
		Tenants:   tenantsRepo,
		Customers: customersService,
		Gateway:   paystackClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	webhookService, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Logger:            logg,
		BillingRepo:       billingRepo,
		LandlordRepo:      landlords.NewRepository(dbClient.DB()),
		Notifier:          notifier,
		TransactionRunner: dbClient,
		BillingPortalURL:  cfg.Paystack.BillingURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paystackwebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "paystack-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			billingService,
			notificationsService,
			paystackClient,
			webhookService,
			webhookGuard,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "shutdown did not complete cleanly", err)
		}
	}
}
