package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/serenityspa/bookingflow/internal/api/router"
	"github.com/serenityspa/bookingflow/internal/bookingapi"
	"github.com/serenityspa/bookingflow/internal/catalog"
	appconfig "github.com/serenityspa/bookingflow/internal/config"
	"github.com/serenityspa/bookingflow/internal/editor"
	"github.com/serenityspa/bookingflow/internal/http/handlers"
	"github.com/serenityspa/bookingflow/internal/observability/metrics"
	"github.com/serenityspa/bookingflow/internal/payments"
	"github.com/serenityspa/bookingflow/internal/wizard"
	"github.com/serenityspa/bookingflow/pkg/logging"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bookingflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	// Domain clients
	catalogClient := catalog.NewClient(cfg.BookingAPIBaseURL, logger).
		WithHTTPClient(&http.Client{Timeout: cfg.BookingAPITimeout})
	bookingsClient := bookingapi.NewClient(cfg.BookingAPIBaseURL, cfg.BookingAPIAdminToken, logger).
		WithHTTPClient(&http.Client{Timeout: cfg.BookingAPITimeout})
	sessionStore := payments.NewSessionStore(redisClient, cfg.SessionRefTTL, logger)

	// Return URLs default onto this service's own return endpoints.
	successURL := cfg.CheckoutSuccessURL
	if successURL == "" && cfg.PublicBaseURL != "" {
		successURL = cfg.PublicBaseURL + "/payments/return/success"
	}
	cancelURL := cfg.CheckoutCancelURL
	if cancelURL == "" && cfg.PublicBaseURL != "" {
		cancelURL = cfg.PublicBaseURL + "/payments/return/cancel"
	}
	checkoutClient := payments.NewCheckoutClient(cfg.PaymentsBaseURL,
		successURL, cancelURL, sessionStore, logger).
		WithDryRun(cfg.CheckoutDryRun).
		WithHTTPClient(&http.Client{Timeout: cfg.CheckoutTimeout})

	// The catalog loads once at startup; service and price lookups are
	// synchronous from then on.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	cat, err := catalogClient.LoadCatalog(loadCtx)
	cancelLoad()
	if err != nil {
		logger.Error("failed to load service catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("service catalog loaded", "services", len(cat.Services()))

	flowMetrics := metrics.NewFlowMetrics(nil)
	registry := wizard.NewRegistry(cfg.DraftTTL, logger)

	wizardCfg := wizard.Config{
		Catalog:      cat,
		Availability: catalogClient,
		Bookings:     bookingsClient,
		Checkout:     checkoutClient,
		Logger:       logger,
		Metrics:      flowMetrics,
	}
	editorCfg := wizardCfg
	editorCfg.Elements = wizard.NewElementHost()
	editorManager := editor.NewManager(editorCfg, bookingsClient, logger)

	// Sweep abandoned wizard activations in the background.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go registry.Run(sweepCtx, cfg.SweepInterval)

	routerCfg := &router.Config{
		Logger:             logger,
		WizardHandler:      handlers.NewWizardHandler(registry, wizardCfg, catalogClient, logger),
		ReturnsHandler:     handlers.NewReturnsHandler(registry, payments.NewVerifier(sessionStore), editorManager, flowMetrics, logger),
		AdminBookings:      handlers.NewAdminBookingsHandler(editorManager, registry, bookingsClient, flowMetrics, logger),
		HealthHandler:      handlers.NewHealthHandler(redisClient),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
