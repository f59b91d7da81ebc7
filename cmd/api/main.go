package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annisahuljannah/cadoobag/api/controllers"
	"github.com/annisahuljannah/cadoobag/api/routes"
	"github.com/annisahuljannah/cadoobag/internal/checkout"
	"github.com/annisahuljannah/cadoobag/internal/inventory"
	"github.com/annisahuljannah/cadoobag/internal/orders"
	"github.com/annisahuljannah/cadoobag/internal/payments"
	"github.com/annisahuljannah/cadoobag/internal/products"
	"github.com/annisahuljannah/cadoobag/internal/shipping"
	"github.com/annisahuljannah/cadoobag/internal/vouchers"
	"github.com/annisahuljannah/cadoobag/pkg/config"
	"github.com/annisahuljannah/cadoobag/pkg/db"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/metrics"
	"github.com/annisahuljannah/cadoobag/pkg/migrate"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
	"github.com/annisahuljannah/cadoobag/pkg/redis"
	"github.com/annisahuljannah/cadoobag/pkg/shiprate"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "cadoobag-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := context.Background()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "server exited", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	gateway, err := paygate.NewClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.APIKey,
		cfg.Gateway.PrivateKey,
		cfg.Gateway.MerchantCode,
		paygate.WithTimeout(cfg.Gateway.Timeout),
		paygate.WithReturnURL(cfg.Gateway.ReturnURL),
	)
	if err != nil {
		return err
	}

	rateClient, err := shiprate.NewClient(
		cfg.Shipping.BaseURL,
		cfg.Shipping.APIKey,
		shiprate.WithTimeout(cfg.Shipping.Timeout),
		shiprate.WithCache(redisClient, cfg.Shipping.CacheTTL),
	)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	productsRepo := products.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	inventoryLedger := inventory.NewLedger(dbClient.DB())
	voucherLedger := vouchers.NewLedger(dbClient.DB())

	checkoutService, err := checkout.NewService(
		productsRepo,
		ordersRepo,
		paymentsRepo,
		inventoryLedger,
		voucherLedger,
		gateway,
		dbClient,
		cfg.Checkout,
		logg,
		checkoutMetrics,
	)
	if err != nil {
		return err
	}

	paymentsService, err := payments.NewService(
		ordersRepo,
		paymentsRepo,
		inventoryLedger,
		dbClient,
		cfg.Gateway.PrivateKey,
		logg,
		checkoutMetrics,
	)
	if err != nil {
		return err
	}

	callbackGuard, err := payments.NewCallbackGuard(redisClient, cfg.Checkout.CallbackGuardTTL, "paygate")
	if err != nil {
		return err
	}

	shippingService, err := shipping.NewService(rateClient, cfg.Shipping.OriginCityID)
	if err != nil {
		return err
	}

	router := routes.NewRouter(routes.Dependencies{
		Logger:        logg,
		Health:        controllers.NewHealthController(dbClient, redisClient, logg),
		Checkout:      controllers.NewCheckoutController(checkoutService, logg),
		Orders:        controllers.NewOrdersController(ordersRepo, logg),
		Shipping:      controllers.NewShippingController(shippingService, logg),
		Payments:      controllers.NewPaymentsController(gateway, logg),
		ManualPayment: controllers.NewManualPaymentController(paymentsService, logg),
		Webhook:       controllers.NewWebhookController(paymentsService, callbackGuard, logg),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logg.Info(ctx, "server stopped")
	return nil
}
