package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/chatstore-backend/api/controllers"
	"github.com/angelmondragon/chatstore-backend/api/middleware"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

// Dependencies are the services the HTTP surface drives.
type Dependencies struct {
	Orders      controllers.OrderService
	Proofs      controllers.ProofSubmitter
	Inbox       controllers.Inbox
	Broadcaster controllers.Broadcaster
	StoreGuard  middleware.StoreGuard
	Limiter     middleware.WindowLimiter
	Readiness   map[string]controllers.Pinger
	Metrics     prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	apiLimit := middleware.RateLimitPolicy{
		Name:   "api",
		Limit:  cfg.RateLimit.RequestsPerWindow,
		Window: cfg.RateLimit.Window,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(apiLimit, deps.Limiter, logg))

		r.Route("/stores/{storeId}", func(r chi.Router) {
			r.Use(middleware.RequireStoreAccess(deps.StoreGuard, logg))
			r.Post("/orders", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/orders", controllers.ListOrders(deps.Orders, logg))
			r.Get("/orders/export", controllers.ExportOrders(deps.Orders, logg))

			r.Get("/notifications", controllers.ListNotifications(deps.Inbox, logg))
			r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(deps.Inbox, logg))
			r.Post("/notifications/{notificationId}/read", controllers.MarkNotificationRead(deps.Inbox, logg))

			r.Post("/broadcast", controllers.Broadcast(deps.Broadcaster, logg))
		})

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.GetOrder(deps.Orders, logg))
			r.Get("/history", controllers.OrderHistory(deps.Orders, logg))
			r.Post("/confirm-payment", controllers.ConfirmPayment(deps.Orders, logg))
			r.Post("/reject", controllers.RejectOrder(deps.Orders, logg))
			r.Post("/ship", controllers.ShipOrder(deps.Orders, logg))
			r.Post("/deliver", controllers.DeliverOrder(deps.Orders, logg))
			r.Post("/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Post("/payment-proof", controllers.SubmitPaymentProof(deps.Proofs, logg))
		})
	})

	return r
}
