package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/api/routes"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/auth"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/cart"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/catalog"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/checkout"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/orders"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/payments"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/internal/users"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/config"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/db"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/logger"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/metrics"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/migrate"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/outbox"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/redis"
	"github.com/rmahardhikasp17/e-umkm-smartshop-14-sub000/pkg/square"
)

const webhookDedupTTL = 7 * 24 * time.Hour

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

	usersRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartStore, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	sessionsRepo := payments.NewRepository(dbClient.DB())

	var squareClient *square.Client
	var strategy payments.Strategy
	switch cfg.Payments.NormalizedMode() {
	case config.PaymentModeHosted:
		squareClient, err = square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap square", err)
			os.Exit(1)
		}
		strategy, err = payments.NewHostedStrategy(squareClient, sessionsRepo, cfg.Payments, logg)
	default:
		strategy, err = payments.NewInlineStrategy(logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create payment strategy", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	checkoutService, err := checkout.NewService(
		cartService,
		catalogRepo,
		ordersRepo,
		strategy,
		dbClient,
		outboxService,
		checkoutMetrics,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reconciler, err := payments.NewReconciler(sessionsRepo, cartService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment reconciler", err)
		os.Exit(1)
	}

	webhookService, err := payments.NewWebhookService(sessionsRepo, ordersService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := payments.NewIdempotencyGuard(redisClient, webhookDedupTTL, "square")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"payment_mode": cfg.Payments.NormalizedMode(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			AuthService:     authService,
			CatalogService:  catalogService,
			CartService:     cartService,
			CheckoutService: checkoutService,
			OrdersService:   ordersService,
			UsersRepo:       usersRepo,
			Reconciler:      reconciler,
			WebhookService:  webhookService,
			WebhookGuard:    webhookGuard,
			SquareClient:    squareClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
