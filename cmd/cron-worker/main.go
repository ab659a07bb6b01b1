package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grocerly/grocerly-backend/internal/address"
	"github.com/grocerly/grocerly-backend/internal/cart"
	"github.com/grocerly/grocerly-backend/internal/coupons"
	"github.com/grocerly/grocerly-backend/internal/cron"
	"github.com/grocerly/grocerly-backend/internal/inventory"
	"github.com/grocerly/grocerly-backend/internal/notifications"
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

const lockKeyFormat = "gr:cron-worker:lock:%s"

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

	subscriptionsService, err := buildSubscriptionsService(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build subscriptions service", err)
		os.Exit(1)
	}

	runner := &cron.GormTxRunner{DB: dbClient.DB()}

	reconcileJob, err := cron.NewSubscriptionReconcileJob(cron.SubscriptionReconcileJobParams{
		Logger:        logg,
		Subscriptions: subscriptionsService,
	})
	exitOnErr(logg, "subscription reconcile job", err)

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          runner,
		Repository:  outbox.NewRepository(dbClient.DB()),
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	exitOnErr(logg, "outbox retention job", err)

	notificationCleanupJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         runner,
		Repository: notifications.NewRepository(dbClient.DB()),
	})
	exitOnErr(logg, "notification cleanup job", err)

	cartCleanupJob, err := cron.NewCartCleanupJob(cron.CartCleanupJobParams{
		Logger:     logg,
		DB:         runner,
		Repository: cart.NewRepository(dbClient.DB()),
	})
	exitOnErr(logg, "cart cleanup job", err)

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		reconcileJob,
		outboxRetentionJob,
		notificationCleanupJob,
		cartCleanupJob,
	)
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

func buildSubscriptionsService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (subscriptions.Service, error) {
	coordinator, err := db.NewCoordinator(dbClient, logg, nil)
	if err != nil {
		return nil, err
	}

	gormDB := dbClient.DB()
	pricingService, err := pricing.NewService(pricing.ServiceParams{Cfg: cfg.Pricing})
	if err != nil {
		return nil, err
	}
	couponsService, err := coupons.NewService(coupons.ServiceParams{Repo: coupons.NewRepository(gormDB)})
	if err != nil {
		return nil, err
	}
	inventoryService, err := inventory.NewService(inventory.ServiceParams{Repo: inventory.NewRepository(gormDB)})
	if err != nil {
		return nil, err
	}
	walletService, err := wallet.NewService(wallet.ServiceParams{Repo: wallet.NewRepository(gormDB)})
	if err != nil {
		return nil, err
	}

	return subscriptions.NewService(subscriptions.ServiceParams{
		Coordinator: coordinator,
		Repo:        subscriptions.NewRepository(gormDB),
		Stores:      stores.NewRepository(gormDB),
		Products:    products.NewRepository(gormDB),
		Addresses:   address.NewRepository(gormDB),
		Coupons:     couponsService,
		Pricing:     pricingService,
		Inventory:   inventoryService,
		Wallet:      walletService,
		Outbox:      outbox.NewService(outbox.NewRepository(gormDB), logg),
		Cfg:         cfg.Subscriptions,
		OrderCfg:    cfg.Orders,
		Logg:        logg,
	})
}

func exitOnErr(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
