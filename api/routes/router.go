package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/controllers"
	webhookcontrollers "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/controllers/webhooks"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/middleware"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/auth"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/cart"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/catalog"
	checkoutsvc "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/checkout"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/orders"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/payments"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/users"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/enums"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	redispkg "github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/redis"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/square"
)

// Deps bundles everything the HTTP surface needs. Optional fields may stay
// nil; the affected endpoints answer 500 instead of panicking.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *redispkg.Client

	AuthService     auth.Service
	CatalogService  catalog.Service
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
	UsersRepo       *users.Repository

	Reconciler     *payments.Reconciler
	WebhookService *payments.WebhookService
	WebhookGuard   *payments.IdempotencyGuard
	SquareClient   *square.Client
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var kv redispkg.KV
	if deps.Redis != nil {
		kv = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		if deps.Redis != nil {
			r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
		} else {
			r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, nil))
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		var secretSrc webhookcontrollers.SquareSecretSource
		if deps.SquareClient != nil {
			secretSrc = deps.SquareClient
		}
		var handler webhookcontrollers.PaymentEventHandler
		if deps.WebhookService != nil {
			handler = deps.WebhookService
		}
		var guard webhookcontrollers.WebhookGuard
		if deps.WebhookGuard != nil {
			guard = deps.WebhookGuard
		}
		r.Post("/square", webhookcontrollers.SquareWebhook(handler, secretSrc, guard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(kv, logg))
		r.Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.CatalogService, logg))
		r.Get("/{productId}", controllers.ProductDetail(deps.CatalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(kv, logg))

		r.Get("/auth/me", controllers.AuthMe(deps.AuthService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
			r.Post("/items", controllers.CartAdd(deps.CartService, logg))
			r.Put("/items/{productId}", controllers.CartSetQuantity(deps.CartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(deps.CartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.CheckoutService, deps.CartService, logg))
		r.Get("/checkout/{checkoutId}/confirm", controllers.CheckoutConfirm(deps.Reconciler, logg))
		r.Get("/checkouts/{checkoutId}", controllers.CheckoutDetail(deps.OrdersService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.OrdersService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.OrdersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(kv, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.CatalogService, logg))
			r.Post("/", controllers.AdminProductCreate(deps.CatalogService, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.CatalogService, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.CatalogService, logg))
			r.Post("/{productId}/replenish", controllers.AdminProductReplenish(deps.CatalogService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.OrdersService, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderTransition(deps.OrdersService, logg))
		})

		r.Get("/customers", controllers.AdminCustomerList(deps.UsersRepo, logg))
	})

	return r
}
