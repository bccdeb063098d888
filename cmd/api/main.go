package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukastore/backend/api/routes"
	cartsvc "github.com/dukastore/backend/internal/cart"
	"github.com/dukastore/backend/internal/catalog"
	checkoutsvc "github.com/dukastore/backend/internal/checkout"
	"github.com/dukastore/backend/internal/customers"
	"github.com/dukastore/backend/internal/notifications"
	"github.com/dukastore/backend/internal/orders"
	"github.com/dukastore/backend/internal/payment"
	"github.com/dukastore/backend/internal/pricing"
	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/db"
	"github.com/dukastore/backend/pkg/enums"
	"github.com/dukastore/backend/pkg/logger"
	"github.com/dukastore/backend/pkg/metrics"
	"github.com/dukastore/backend/pkg/migrate"
	"github.com/dukastore/backend/pkg/redis"
	"github.com/dukastore/backend/pkg/session"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewStore(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	cartRepo := cartsvc.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	customersRepo := customers.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartService, err := cartsvc.NewService(cartRepo, dbClient, catalogRepo, sessions)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	aggregator := pricing.NewAggregator(cfg.Shipping)
	gateways := buildGateways(cfg, logg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	var notifier notifications.Notifier = notifications.NewLogNotifier(logg)
	if webhook := notifications.NewWebhookNotifier(cfg.Notify, logg); webhook != nil {
		notifier = webhook
	}

	checkoutService, err := checkoutsvc.NewService(
		dbClient,
		cartRepo,
		catalogRepo,
		customersRepo,
		ordersRepo,
		aggregator,
		payment.NewRegistry(gateways),
		notifier,
		checkoutMetrics,
		cfg.Payments.ChargeTimeout,
		cfg.Payments.Square.Currency,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

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
			Config:     cfg,
			Logger:     logg,
			DBPinger:   dbClient,
			RedisPing:  redisClient,
			Sessions:   sessions,
			CartSvc:    cartService,
			CheckoutSv: checkoutService,
			Pricing:    aggregator,
			Metrics:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildGateways wires every payment provider that has credentials
// configured. Checkout rejects methods with no registered gateway, so
// partially configured environments degrade instead of failing boot.
func buildGateways(cfg *config.Config, logg *logger.Logger) map[enums.PaymentMethod]payment.Gateway {
	gateways := make(map[enums.PaymentMethod]payment.Gateway)

	if card, err := payment.NewCardGateway(cfg.Payments.Square, logg); err != nil {
		logg.Warn(context.Background(), "card gateway not configured: "+err.Error())
	} else {
		gateways[enums.PaymentMethodCard] = card
	}

	if mpesa, err := payment.NewMpesaGateway(cfg.Payments.Mpesa, logg); err != nil {
		logg.Warn(context.Background(), "mpesa gateway not configured: "+err.Error())
	} else {
		gateways[enums.PaymentMethodMpesa] = mpesa
	}

	if paypal, err := payment.NewPaypalGateway(cfg.Payments.Paypal, logg); err != nil {
		logg.Warn(context.Background(), "paypal gateway not configured: "+err.Error())
	} else {
		gateways[enums.PaymentMethodPaypal] = paypal
	}

	return gateways
}
