package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addresscontrollers "github.com/grocerly/grocerly-backend/api/controllers/addresses"
	cartcontrollers "github.com/grocerly/grocerly-backend/api/controllers/cart"
	catalogcontrollers "github.com/grocerly/grocerly-backend/api/controllers/catalog"
	healthcontrollers "github.com/grocerly/grocerly-backend/api/controllers/health"
	notificationcontrollers "github.com/grocerly/grocerly-backend/api/controllers/notifications"
	ordercontrollers "github.com/grocerly/grocerly-backend/api/controllers/orders"
	subscriptioncontrollers "github.com/grocerly/grocerly-backend/api/controllers/subscriptions"
	walletcontrollers "github.com/grocerly/grocerly-backend/api/controllers/wallet"
	"github.com/grocerly/grocerly-backend/api/middleware"
	"github.com/grocerly/grocerly-backend/internal/address"
	"github.com/grocerly/grocerly-backend/internal/cart"
	"github.com/grocerly/grocerly-backend/internal/notifications"
	"github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/internal/products"
	"github.com/grocerly/grocerly-backend/internal/stores"
	"github.com/grocerly/grocerly-backend/internal/subscriptions"
	"github.com/grocerly/grocerly-backend/internal/wallet"
	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/db"
	"github.com/grocerly/grocerly-backend/pkg/enums"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Metrics       prometheus.Gatherer
	Orders        orders.Service
	Subscriptions subscriptions.Service
	Cart          cart.Service
	Wallet        wallet.Service
	Notifications notifications.Service
	Stores        stores.Repository
	Products      products.Repository
	Addresses     address.Repository
}

// NewRouter assembles the HTTP surface of the API server.
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

	var redisPinger redis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", healthcontrollers.Live(cfg))
		r.Get("/ready", healthcontrollers.Ready(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if deps.Redis != nil {
			r.Use(middleware.Idempotency(deps.Redis, logg))
		}

		r.Get("/stores", catalogcontrollers.ListStores(deps.Stores, logg))
		r.Get("/products", catalogcontrollers.ListProducts(deps.Products, logg))
		r.Get("/products/{productId}", catalogcontrollers.ProductDetail(deps.Products, logg))
		r.Get("/addresses", addresscontrollers.List(deps.Addresses, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Put("/", cartcontrollers.Upsert(deps.Cart, logg))
			r.Get("/", cartcontrollers.List(deps.Cart, logg))
			r.Delete("/{itemId}", cartcontrollers.Remove(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(deps.Orders, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleAdmin), logg)).
				Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", subscriptioncontrollers.Create(deps.Subscriptions, logg))
			r.Get("/", subscriptioncontrollers.List(deps.Subscriptions, logg))
			r.Get("/{subscriptionId}", subscriptioncontrollers.Detail(deps.Subscriptions, logg))
			r.Post("/{subscriptionId}/cancel", subscriptioncontrollers.CancelOrder(deps.Subscriptions, logg))
			r.Route("/items/{itemId}", func(r chi.Router) {
				r.Post("/pause", subscriptioncontrollers.PauseItem(deps.Subscriptions, logg))
				r.Post("/resume", subscriptioncontrollers.ResumeItem(deps.Subscriptions, logg))
				r.Post("/cancel", subscriptioncontrollers.CancelItem(deps.Subscriptions, logg))
			})
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", walletcontrollers.Balance(deps.Wallet, logg))
			r.Get("/ledger", walletcontrollers.Statement(deps.Wallet, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationcontrollers.List(deps.Notifications, logg))
			r.Post("/{notificationId}/read", notificationcontrollers.MarkRead(deps.Notifications, logg))
			r.Post("/read-all", notificationcontrollers.MarkAllRead(deps.Notifications, logg))
		})
	})

	return r
}
