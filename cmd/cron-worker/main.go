package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stondral/tsew-sub002/internal/catalog"
	"github.com/stondral/tsew-sub002/internal/cron"
	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/internal/memberships"
	"github.com/stondral/tsew-sub002/internal/notifications"
	"github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/internal/shipments"
	"github.com/stondral/tsew-sub002/pkg/config"
	"github.com/stondral/tsew-sub002/pkg/courier"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/metrics"
	"github.com/stondral/tsew-sub002/pkg/migrate"
	"github.com/stondral/tsew-sub002/pkg/pubsub"
	"github.com/stondral/tsew-sub002/pkg/redis"
	"github.com/stondral/tsew-sub002/pkg/retry"
)

const lockKeyFormat = "market:cron-worker:lock:%s"

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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	membershipsRepo := memberships.NewRepository(conn)
	retryMetrics := metrics.NewRetryMetrics(prometheus.DefaultRegisterer)

	courierClient, err := courier.NewClient(cfg.Courier.BaseURL, cfg.Courier.Token, courier.WithTimeout(cfg.Courier.Timeout))
	must(logg, "courier client", err)
	resolver, err := permissions.NewResolver(membershipsRepo)
	must(logg, "permission resolver", err)
	validator, err := discounts.NewValidator(discounts.ValidatorParams{
		Repo:        discounts.NewRepository(conn),
		Permissions: resolver,
	})
	must(logg, "discount validator", err)

	renderer, err := notifications.NewRenderer()
	must(logg, "notification renderer", err)
	sender, err := notifications.NewPubSubSender(pubsubClient.NotificationPublisher())
	must(logg, "notification sender", err)
	notifier, err := notifications.NewNotifier(notifications.NotifierParams{
		Renderer: renderer,
		Sender:   sender,
		Users:    membershipsRepo,
		From:     cfg.Notifications.FromAddress,
		Logger:   logg,
	})
	must(logg, "notifier", err)

	policy := retry.PolicyFromConfig(cfg.Retry)
	policy.OnRetry = retryMetrics.Hook("orders.transition")
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        ordersRepo,
		Catalog:     catalog.NewRepository(conn),
		Discounts:   validator,
		Courier:     courierClient,
		Notifier:    notifier,
		Tx:          dbClient,
		Permissions: resolver,
		Retry:       policy,
		Logger:      logg,
	})
	must(logg, "orders service", err)

	shipmentsService, err := shipments.NewService(shipments.ServiceParams{
		Orders:  ordersRepo,
		Status:  ordersService,
		Courier: courierClient,
		Metrics: metrics.NewShipmentSyncMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	must(logg, "shipments service", err)
	syncJob, err := shipments.NewSyncJob(shipments.SyncJobParams{
		Orders:    ordersRepo,
		Service:   shipmentsService,
		BatchSize: cfg.Cron.BatchSize,
		Logger:    logg,
	})
	must(logg, "shipment sync job", err)
	unpaidJob, err := cron.NewUnpaidOrderJob(cron.UnpaidOrderJobParams{
		Logger:    logg,
		Orders:    ordersRepo,
		Expirer:   ordersService,
		TTL:       cfg.Cron.UnpaidOrderTTL,
		BatchSize: cfg.Cron.BatchSize,
	})
	must(logg, "unpaid order job", err)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	must(logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(syncJob, unpaidJob),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.ShipmentSyncInterval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	must(logg, "cron service", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.ShipmentSyncInterval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

func must(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
