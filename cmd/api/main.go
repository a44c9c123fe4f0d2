package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/memoria-ph/memoria-backend/api/routes"
	"github.com/memoria-ph/memoria-backend/internal/cart"
	"github.com/memoria-ph/memoria-backend/internal/checkout"
	"github.com/memoria-ph/memoria-backend/internal/orders"
	paymentwebhook "github.com/memoria-ph/memoria-backend/internal/webhooks/payment"
	"github.com/memoria-ph/memoria-backend/pkg/config"
	"github.com/memoria-ph/memoria-backend/pkg/db"
	"github.com/memoria-ph/memoria-backend/pkg/invoicing"
	"github.com/memoria-ph/memoria-backend/pkg/logger"
	"github.com/memoria-ph/memoria-backend/pkg/metrics"
	"github.com/memoria-ph/memoria-backend/pkg/migrate"
	"github.com/memoria-ph/memoria-backend/pkg/redis"
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

	invoicingClient, err := invoicing.NewClient(cfg.Invoicing, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoicing client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		invoicingClient,
		paymentMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(ordersService, cartService, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := paymentwebhook.NewService(ordersService, redisClient, invoicingClient.CallbackToken(), cfg.Webhook, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
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
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Registry:        registry,
			CartService:     cartService,
			CheckoutService: checkoutService,
			OrdersService:   ordersService,
			WebhookService:  webhookService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
