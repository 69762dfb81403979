package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stondral/tsew-sub002/api/controllers"
	ordercontrollers "github.com/stondral/tsew-sub002/api/controllers/orders"
	webhookcontrollers "github.com/stondral/tsew-sub002/api/controllers/webhooks"
	"github.com/stondral/tsew-sub002/api/middleware"
	checkoutsvc "github.com/stondral/tsew-sub002/internal/checkout"
	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/internal/memberships"
	"github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/internal/pricing"
	"github.com/stondral/tsew-sub002/internal/settlement"
	"github.com/stondral/tsew-sub002/internal/shipments"
	"github.com/stondral/tsew-sub002/pkg/config"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/metrics"
	"github.com/stondral/tsew-sub002/pkg/redis"
)

// Dependencies are the services the HTTP surface dispatches to.
type Dependencies struct {
	Pingers     map[string]controllers.Pinger
	Redis       *redis.Client
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Orders      orders.Service
	Shipments   shipments.Service
	Checkout    checkoutsvc.Service
	Quoter      *pricing.Quoter
	Discounts   *discounts.Validator
	Memberships memberships.Service
	Settlement  *settlement.Consumer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	publicPolicy := middleware.RateLimitPolicy{
		Name:   "public",
		Window: cfg.RateLimit.Window,
		Limit:  cfg.RateLimit.PublicLimit,
	}
	checkoutPolicy := middleware.RateLimitPolicy{
		Name:   "checkout",
		Window: cfg.RateLimit.Window,
		Limit:  cfg.RateLimit.PublicLimit,
	}
	rateLimit := func(policy middleware.RateLimitPolicy) func(http.Handler) http.Handler {
		if deps.Redis == nil {
			return passthrough
		}
		return middleware.RateLimit(policy, deps.Redis, logg)
	}
	idempotency := func(ttl time.Duration) func(http.Handler) http.Handler {
		if deps.Redis == nil {
			return passthrough
		}
		return middleware.Idempotency(deps.Redis, ttl, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})
	if cfg.App.Metrics && deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Use(rateLimit(publicPolicy))
		r.Post("/discounts/preview", controllers.PreviewDiscount(deps.Discounts, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Settlement != nil {
			r.Post("/webhooks/payments", webhookcontrollers.PaymentWebhook(deps.Settlement, logg))
		}

		// guests may quote and check out
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(rateLimit(checkoutPolicy))
			r.Post("/cart/quote", controllers.Quote(deps.Quoter, logg))
			r.With(idempotency(middleware.CriticalIdempotencyTTL)).
				Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			idempotent := idempotency(middleware.DefaultIdempotencyTTL)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.With(idempotent).Post("/{orderId}/accept", ordercontrollers.Accept(deps.Orders, logg))
				r.With(idempotent).Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
				r.Patch("/{orderId}/items/{itemId}/status", ordercontrollers.UpdateItemStatus(deps.Orders, logg))
				r.Patch("/{orderId}/address", ordercontrollers.UpdateAddress(deps.Orders, logg))
				r.Patch("/{orderId}/warehouse", ordercontrollers.UpdateWarehouse(deps.Orders, logg))
				r.Post("/{orderId}/shipment/sync", ordercontrollers.SyncShipment(deps.Orders, deps.Shipments, logg))
			})

			r.Post("/discounts", controllers.CreateDiscount(deps.Discounts, logg))

			r.Route("/sellers", func(r chi.Router) {
				r.Post("/", controllers.CreateSellerOrg(deps.Memberships, logg))
				r.Get("/{sellerId}/members", controllers.ListMembers(deps.Memberships, logg))
				r.With(idempotent).Post("/{sellerId}/invites", controllers.InviteMember(deps.Memberships, logg))
				r.Patch("/{sellerId}/members/{userId}", controllers.AssignMemberRole(deps.Memberships, logg))
				r.Delete("/{sellerId}/members/{userId}", controllers.RemoveMember(deps.Memberships, logg))
			})
			r.Post("/invites/{inviteId}/accept", controllers.AcceptInvite(deps.Memberships, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
