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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/bazaarworks/pincode-pricing-backend/api/routes"
	"github.com/bazaarworks/pincode-pricing-backend/internal/catalog"
	"github.com/bazaarworks/pincode-pricing-backend/internal/pricing"
	"github.com/bazaarworks/pincode-pricing-backend/internal/serviceability"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/config"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/metrics"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/migrate"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Info(context.Background(), "redis not configured, serviceability cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	importMetrics := metrics.NewImportMetrics(registry)
	resolveMetrics := metrics.NewResolveMetrics(registry)

	priceRepo := pricing.NewRepository(dbClient.DB(), cfg.Import.UpsertRetries)
	catalogRepo := catalog.NewRepository(dbClient.DB())
	pricingService := pricing.NewService(priceRepo, catalogRepo, logg, importMetrics, cfg.Import.MaxReportErrors)

	var cache serviceability.Cache
	if redisClient != nil {
		cache = redisClient
	}
	serviceabilitySvc := serviceability.NewService(
		serviceability.NewRepository(dbClient.DB()), cache, logg, cfg.Pricing.ServiceabilityCacheTTL)

	resolver := pricing.NewResolver(priceRepo, serviceabilitySvc, logg, resolveMetrics)

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
		Handler: routes.NewRouter(
			cfg, logg, dbClient, redisClient,
			pricingService, resolver, serviceabilitySvc,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
