package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-promotions/api"
	"github.com/angelmondragon/storefront-promotions/api/routes"
	"github.com/angelmondragon/storefront-promotions/internal/audit"
	"github.com/angelmondragon/storefront-promotions/internal/discounts"
	"github.com/angelmondragon/storefront-promotions/internal/orders"
	"github.com/angelmondragon/storefront-promotions/internal/settings"
	"github.com/angelmondragon/storefront-promotions/pkg/auth"
	"github.com/angelmondragon/storefront-promotions/pkg/config"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/env"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/metrics"
	"github.com/angelmondragon/storefront-promotions/pkg/migrate"
	"github.com/angelmondragon/storefront-promotions/pkg/redis"
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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	signer, err := auth.NewSigner(cfg.JWT)
	if err != nil {
		return fmt.Errorf("bootstrap jwt: %w", err)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	deps := routes.Dependencies{Tokens: signer, DB: dbClient}
	var settingsCache settings.Cache
	if redis.Enabled(cfg.Redis) {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, redisClient.Close)
		settingsCache = redisClient
		deps.Redis = redisClient
		deps.Idempotency = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; settings cache and idempotency replay disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Gatherer = registry

	settingsService, err := settings.NewService(
		settings.NewRepository(dbClient.DB()),
		settingsCache,
		cfg.Settings.CacheTTL,
		cfg.Settings.DefaultCurrency,
		logg,
	)
	if err != nil {
		return fmt.Errorf("create settings service: %w", err)
	}

	deps.Discounts, err = discounts.NewService(discounts.ServiceParams{
		Repo:      discounts.NewRepository(dbClient.DB()),
		UsageRepo: discounts.NewUsageRepository(dbClient.DB()),
		Tx:        dbClient,
		Orders:    orders.NewRepository(dbClient.DB()),
		Settings:  settingsService,
		Audit:     audit.NewGormSink(dbClient.DB()),
		Metrics:   metrics.NewDiscountMetrics(registry),
		Logger:    logg,
	})
	if err != nil {
		return fmt.Errorf("create discounts service: %w", err)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(serverCtx, "starting api server")

	server := api.NewServer(addr, routes.NewRouter(cfg, logg, deps))
	return api.Serve(serverCtx, server, ln, cfg.App.ShutdownTimeout, logg)
}
