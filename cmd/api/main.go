package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JoeyLyman/yaycsa/api/routes"
	"github.com/JoeyLyman/yaycsa/internal/channels"
	"github.com/JoeyLyman/yaycsa/internal/checkout"
	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/internal/fulfillment"
	"github.com/JoeyLyman/yaycsa/internal/marketplace"
	"github.com/JoeyLyman/yaycsa/internal/offerorders"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	"github.com/JoeyLyman/yaycsa/internal/orders"
	"github.com/JoeyLyman/yaycsa/internal/sellerstrategy"
	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/db"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/metrics"
	"github.com/JoeyLyman/yaycsa/pkg/migrate"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	"github.com/JoeyLyman/yaycsa/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	must(logg, "config", err)
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	must(logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	must(logg, "dev migrations", migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient))

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	must(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	deps, err := buildDependencies(cfg, logg, dbClient, redisClient)
	must(logg, "services", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, *deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

// buildDependencies assembles repositories and services for the router.
func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*routes.Dependencies, error) {
	gdb := dbClient.DB()

	channelSvc, err := channels.NewService(channels.NewRepository(gdb), cfg.Channels.DefaultToken)
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}
	customerSvc, err := customers.NewService(customers.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)
	mutationMetrics := metrics.NewOrderMutationMetrics(prometheus.DefaultRegisterer)

	validator, err := offers.NewValidator(customerSvc, time.Now)
	if err != nil {
		return nil, fmt.Errorf("offer validator: %w", err)
	}
	offersRepo := offers.NewRepository(gdb)
	offerSvc, err := offers.NewService(offers.Deps{
		Repo:      offersRepo,
		Tx:        dbClient,
		Outbox:    outboxSvc,
		Validator: validator,
		Groups:    customerSvc,
		Ownership: customerSvc,
		Channels:  channelSvc,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("offers: %w", err)
	}

	strategy, err := sellerstrategy.New(channelSvc, sellerstrategy.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("seller strategy: %w", err)
	}
	ordersRepo := orders.NewRepository(gdb)
	orderSvc, err := orders.NewService(ordersRepo, strategy)
	if err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}

	offerOrderSvc, err := offerorders.NewService(offerorders.Deps{
		Offers:    offersRepo,
		Validator: validator,
		Groups:    customerSvc,
		Orders:    orderSvc,
		Tx:        dbClient,
		Outbox:    outboxSvc,
		Metrics:   mutationMetrics,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("offer orders: %w", err)
	}

	fulfillmentSvc, err := fulfillment.NewService(fulfillment.NewRepository(gdb), dbClient, channelSvc)
	if err != nil {
		return nil, fmt.Errorf("fulfillment: %w", err)
	}

	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Orders:      orderSvc,
		OrdersRepo:  ordersRepo,
		Splitter:    strategy,
		Fulfillment: fulfillmentSvc,
		Tx:          dbClient,
		Outbox:      outboxSvc,
		Metrics:     mutationMetrics,
		Logger:      logg,
		Now:         time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	marketplaceSvc, err := marketplace.NewService(marketplace.NewRepository(gdb), channelSvc, time.Now)
	if err != nil {
		return nil, fmt.Errorf("marketplace: %w", err)
	}

	return &routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Store:       redisClient,
		Gatherer:    prometheus.DefaultGatherer,
		HTTPMetrics: metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Channels:    channelSvc,
		Customers:   customerSvc,
		Offers:      offerSvc,
		Orders:      orderSvc,
		OfferOrders: offerOrderSvc,
		Checkout:    checkoutSvc,
		Marketplace: marketplaceSvc,
		Fulfillment: fulfillmentSvc,
	}, nil
}

func must(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
