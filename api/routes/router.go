package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tmokoena/rentpilot-backend/api/controllers"
	webhookcontrollers "github.com/tmokoena/rentpilot-backend/api/controllers/webhooks"
	"github.com/tmokoena/rentpilot-backend/api/middleware"
	"github.com/tmokoena/rentpilot-backend/internal/billing"
	"github.com/tmokoena/rentpilot-backend/internal/notifications"
	paystackwebhook "github.com/tmokoena/rentpilot-backend/internal/webhooks/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/config"
	"github.com/tmokoena/rentpilot-backend/pkg/db"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
	"github.com/tmokoena/rentpilot-backend/pkg/paystack"
	"github.com/tmokoena/rentpilot-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	billingService *billing.Service,
	notificationsService notifications.Service,
	paystackClient *paystack.Client,
	paystackWebhookService *paystackwebhook.Service,
	paystackWebhookGuard *paystackwebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP controllers.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", webhookcontrollers.PaystackWebhook(paystackWebhookService, paystackClient, paystackWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.LandlordContext(logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.ListInvoices(billingService, logg))
			r.Post("/", controllers.CreateInvoice(billingService, logg))
			r.Get("/{invoiceId}", controllers.GetInvoice(billingService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
