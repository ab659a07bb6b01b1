package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/grocerly/grocerly-backend/api/routes"
	"github.com/grocerly/grocerly-backend/internal/address"
	"github.com/grocerly/grocerly-backend/internal/cart"
	"github.com/grocerly/grocerly-backend/internal/coupons"
	"github.com/grocerly/grocerly-backend/internal/inventory"
	"github.com/grocerly/grocerly-backend/internal/notifications"
	"github.com/grocerly/grocerly-backend/internal/orders"
	"github.com/grocerly/grocerly-backend/internal/pricing"
	"github.com/grocerly/grocerly-backend/internal/products"
	"github.com/grocerly/grocerly-backend/internal/stores"
	"github.com/grocerly/grocerly-backend/internal/subscriptions"
	"github.com/grocerly/grocerly-backend/internal/wallet"
	"github.com/grocerly/grocerly-backend/pkg/config"
	"github.com/grocerly/grocerly-backend/pkg/db"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/metrics"
	"github.com/grocerly/grocerly-backend/pkg/migrate"
	"github.com/grocerly/grocerly-backend/pkg/outbox"
	"github.com/grocerly/grocerly-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	txMetrics := metrics.NewTxRetryMetrics(registry)

	coordinator, err := db.NewCoordinator(dbClient, logg, txMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create tx coordinator", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	storesRepo := stores.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	couponsRepo := coupons.NewRepository(gormDB)
	inventoryRepo := inventory.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	subscriptionsRepo := subscriptions.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	pricingService, err := pricing.NewService(pricing.ServiceParams{Cfg: cfg.Pricing})
	exitOnErr(logg, "pricing service", err)
	couponsService, err := coupons.NewService(coupons.ServiceParams{Repo: couponsRepo})
	exitOnErr(logg, "coupons service", err)
	inventoryService, err := inventory.NewService(inventory.ServiceParams{Repo: inventoryRepo})
	exitOnErr(logg, "inventory service", err)
	walletService, err := wallet.NewService(wallet.ServiceParams{Repo: walletRepo})
	exitOnErr(logg, "wallet service", err)
	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:     cartRepo,
		Stores:   storesRepo,
		Products: productsRepo,
	})
	exitOnErr(logg, "cart service", err)
	notificationsService, err := notifications.NewService(notificationsRepo)
	exitOnErr(logg, "notifications service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Coordinator: coordinator,
		Repo:        ordersRepo,
		Stores:      storesRepo,
		Products:    productsRepo,
		Addresses:   addressRepo,
		Cart:        cartRepo,
		Coupons:     couponsService,
		Pricing:     pricingService,
		Inventory:   inventoryService,
		Wallet:      walletService,
		Outbox:      outboxService,
		Cfg:         cfg.Orders,
		Logg:        logg,
	})
	exitOnErr(logg, "orders service", err)

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Coordinator: coordinator,
		Repo:        subscriptionsRepo,
		Stores:      storesRepo,
		Products:    productsRepo,
		Addresses:   addressRepo,
		Coupons:     couponsService,
		Pricing:     pricingService,
		Inventory:   inventoryService,
		Wallet:      walletService,
		Outbox:      outboxService,
		Cfg:         cfg.Subscriptions,
		OrderCfg:    cfg.Orders,
		Logg:        logg,
	})
	exitOnErr(logg, "subscriptions service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Metrics:       registry,
			Orders:        ordersService,
			Subscriptions: subscriptionsService,
			Cart:          cartService,
			Wallet:        walletService,
			Notifications: notificationsService,
			Stores:        storesRepo,
			Products:      productsRepo,
			Addresses:     addressRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
