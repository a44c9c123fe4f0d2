package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/memoria-ph/memoria-backend/api/controllers"
	webhookcontrollers "github.com/memoria-ph/memoria-backend/api/controllers/webhooks"
	"github.com/memoria-ph/memoria-backend/api/middleware"
	cartsvc "github.com/memoria-ph/memoria-backend/internal/cart"
	checkoutsvc "github.com/memoria-ph/memoria-backend/internal/checkout"
	ordersvc "github.com/memoria-ph/memoria-backend/internal/orders"
	"github.com/memoria-ph/memoria-backend/pkg/config"
	"github.com/memoria-ph/memoria-backend/pkg/db"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
	"github.com/memoria-ph/memoria-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	Registry        *prometheus.Registry
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   ordersvc.Service
	WebhookService  webhookcontrollers.PaymentWebhookService
}

// NewRouter assembles the HTTP surface. The callback webhook stays outside
// the authed group; it authenticates with the gateway token instead.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var cache db.Pinger
	passthrough := func(next http.Handler) http.Handler { return next }
	webhookLimit, checkoutLimit := passthrough, passthrough
	if deps.Redis != nil {
		cache = deps.Redis
		webhookLimit = middleware.RateLimitByIP(
			middleware.NewRateLimitPolicy("webhook", cfg.RateLimit.WebhookWindow, cfg.RateLimit.WebhookIPLimit),
			deps.Redis, logg,
		)
		checkoutLimit = middleware.RateLimitByUser(
			middleware.NewRateLimitPolicy("checkout", cfg.RateLimit.CheckoutWindow, cfg.RateLimit.CheckoutUserLimit),
			deps.Redis, logg,
		)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cache, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(webhookLimit).Post("/payment", webhookcontrollers.PaymentWebhook(deps.WebhookService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Route("/v1", func(r chi.Router) {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.CartService, logg))
				r.Delete("/", controllers.CartClear(deps.CartService, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.CartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.CartService, logg))
			})

			r.With(checkoutLimit).Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.OrdersGet(deps.OrdersService, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, string(enums.MemberRoleAdmin)))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(deps.OrdersService, logg))
				r.Get("/{orderId}", controllers.AdminOrdersGet(deps.OrdersService, logg))
				r.Post("/{orderId}", controllers.AdminOrdersUpdate(deps.OrdersService, logg))
				r.Post("/{orderId}/tracking", controllers.AdminOrdersGenerateTracking(deps.OrdersService, logg))
			})
		})
	})

	return r
}
