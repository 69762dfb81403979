package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stondral/tsew-sub002/api/controllers"
	"github.com/stondral/tsew-sub002/api/routes"
	"github.com/stondral/tsew-sub002/internal/catalog"
	"github.com/stondral/tsew-sub002/internal/checkout"
	"github.com/stondral/tsew-sub002/internal/discounts"
	"github.com/stondral/tsew-sub002/internal/memberships"
	"github.com/stondral/tsew-sub002/internal/notifications"
	"github.com/stondral/tsew-sub002/internal/orders"
	"github.com/stondral/tsew-sub002/internal/permissions"
	"github.com/stondral/tsew-sub002/internal/pricing"
	"github.com/stondral/tsew-sub002/internal/settlement"
	"github.com/stondral/tsew-sub002/internal/shipments"
	"github.com/stondral/tsew-sub002/internal/subscriptions"
	"github.com/stondral/tsew-sub002/pkg/config"
	"github.com/stondral/tsew-sub002/pkg/courier"
	"github.com/stondral/tsew-sub002/pkg/db"
	"github.com/stondral/tsew-sub002/pkg/gateway"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/metrics"
	"github.com/stondral/tsew-sub002/pkg/migrate"
	"github.com/stondral/tsew-sub002/pkg/pubsub"
	"github.com/stondral/tsew-sub002/pkg/redis"
	"github.com/stondral/tsew-sub002/pkg/retry"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	retryMetrics := metrics.NewRetryMetrics(registry)

	conn := dbClient.DB()
	ordersRepo := orders.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	membershipsRepo := memberships.NewRepository(conn)
	policy := retry.PolicyFromConfig(cfg.Retry)

	gatewayClient, err := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret,
		gateway.WithTimeout(cfg.Gateway.Timeout), gateway.WithCurrency(cfg.Gateway.Currency))
	must(logg, "payment gateway client", err)
	courierClient, err := courier.NewClient(cfg.Courier.BaseURL, cfg.Courier.Token, courier.WithTimeout(cfg.Courier.Timeout))
	must(logg, "courier client", err)

	resolver, err := permissions.NewResolver(membershipsRepo)
	must(logg, "permission resolver", err)

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

	validator, err := discounts.NewValidator(discounts.ValidatorParams{
		Repo:        discounts.NewRepository(conn),
		Permissions: resolver,
	})
	must(logg, "discount validator", err)

	calculator, err := pricing.NewCalculator(catalogRepo, pricing.RulesFromConfig(cfg.Pricing))
	must(logg, "pricing calculator", err)
	quoter, err := pricing.NewQuoter(calculator, validator)
	must(logg, "quoter", err)

	checkoutPolicy := policy
	checkoutPolicy.OnRetry = retryMetrics.Hook("checkout.confirm")
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Quoter:    quoter,
		Catalog:   catalogRepo,
		Orders:    ordersRepo,
		Discounts: validator,
		Gateway:   gatewayClient,
		Tx:        dbClient,
		Retry:     checkoutPolicy,
		Logger:    logg,
	})
	must(logg, "checkout service", err)

	ordersPolicy := policy
	ordersPolicy.OnRetry = retryMetrics.Hook("orders.transition")
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        ordersRepo,
		Catalog:     catalogRepo,
		Discounts:   validator,
		Courier:     courierClient,
		Notifier:    notifier,
		Tx:          dbClient,
		Permissions: resolver,
		Retry:       ordersPolicy,
		Logger:      logg,
	})
	must(logg, "orders service", err)

	membershipsPolicy := policy
	membershipsPolicy.OnRetry = retryMetrics.Hook("memberships.write")
	membershipsService, err := memberships.NewService(memberships.ServiceParams{
		Repo:        membershipsRepo,
		Tx:          dbClient,
		Permissions: resolver,
		Retry:       membershipsPolicy,
		Logger:      logg,
	})
	must(logg, "memberships service", err)

	shipmentsService, err := shipments.NewService(shipments.ServiceParams{
		Orders:  ordersRepo,
		Status:  ordersService,
		Courier: courierClient,
		Metrics: metrics.NewShipmentSyncMetrics(registry),
		Logger:  logg,
	})
	must(logg, "shipments service", err)

	subscriptionsService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:   subscriptions.NewRepository(conn),
		Tx:     dbClient,
		Logger: logg,
	})
	must(logg, "subscriptions service", err)
	guard, err := settlement.NewIdempotencyGuard(redisClient, cfg.Redis.IdempotencyTTL, "payments")
	must(logg, "webhook idempotency guard", err)
	consumer, err := settlement.NewConsumer(settlement.ConsumerParams{
		Secret:        cfg.Gateway.WebhookSecret,
		Orders:        ordersRepo,
		Subscriptions: subscriptionsService,
		Guard:         guard,
		Metrics:       metrics.NewWebhookMetrics(registry),
		Logger:        logg,
	})
	must(logg, "settlement consumer", err)

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
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Pingers: map[string]controllers.Pinger{
				"db":     dbClient,
				"redis":  redisClient,
				"pubsub": pubsubClient,
			},
			Redis:       redisClient,
			Gatherer:    registry,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Orders:      ordersService,
			Shipments:   shipmentsService,
			Checkout:    checkoutService,
			Quoter:      quoter,
			Discounts:   validator,
			Memberships: membershipsService,
			Settlement:  consumer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func must(logg *logger.Logger, what string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+what, err)
		os.Exit(1)
	}
}
