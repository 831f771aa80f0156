package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-promotions/internal/audit"
	"github.com/angelmondragon/storefront-promotions/internal/cron"
	"github.com/angelmondragon/storefront-promotions/internal/discounts"
	"github.com/angelmondragon/storefront-promotions/pkg/config"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/metrics"
	"github.com/angelmondragon/storefront-promotions/pkg/migrate"
	"github.com/angelmondragon/storefront-promotions/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

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
		Format:      cfg.App.LogFormat,
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

	lock := cron.NewNoopLock()
	if redis.Enabled(cfg.Redis) {
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
		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey("scheduler", cfg.App.Env), cfg.Scheduler.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create scheduler lock", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; scheduler runs without a distributed lock")
	}

	expiryJob, err := cron.NewDiscountExpiryJob(cron.DiscountExpiryJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: discounts.NewRepository(dbClient.DB()),
		Audit:      audit.NewGormSink(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create discount expiry job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(expiryJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Scheduler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Scheduler.Interval.String(),
		"jobs":     registry.Names(),
	})

	if *once {
		failed, err := service.RunOnce(ctx)
		if err == nil && failed > 0 {
			err = fmt.Errorf("%d job(s) failed", failed)
		}
		if err != nil {
			logg.Error(ctx, "scheduler cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}
