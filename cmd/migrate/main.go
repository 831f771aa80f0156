package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/angelmondragon/storefront-promotions/pkg/config"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
	"github.com/angelmondragon/storefront-promotions/pkg/migrate"
	"github.com/joho/godotenv"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|redo|version|create|validate")
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate work on files only, no config needed
	switch *cmd {
	case "create":
		if err := create(dirOrDefault(*dir), *name); err != nil {
			fmt.Fprintf(os.Stderr, "create migration: %v\n", err)
			os.Exit(1)
		}
		return
	case "validate":
		if err := validate(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	_ = godotenv.Load()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "config.load_failed", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	src := migrate.Embedded()
	if *dir != "" {
		src = migrate.FromDir(*dir)
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"source": src.String(),
	})

	if err := run(ctx, cfg, logg, src, *cmd, *version); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, src migrate.Source, cmd, version string) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	switch cmd {
	case "up", "down", "status", "redo":
		err = migrate.Run(ctx, sqlDB, src, cmd)
	case "version":
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, src, version)
	default:
		return fmt.Errorf("unknown -cmd value %q", cmd)
	}
	if err != nil {
		return err
	}

	current, err := migrate.CurrentVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", current), "migrate.complete")
	return nil
}

func create(dir, name string) error {
	if name == "" {
		return fmt.Errorf("missing -name")
	}
	path, err := migrate.CreateSQLMigration(dir, name, time.Now())
	if err != nil {
		return err
	}
	fmt.Println("created migration:", path)
	return nil
}

func validate(dir string) error {
	if dir == "" {
		return migrate.Validate(migrate.Embedded().FS)
	}
	return migrate.ValidateDir(dir)
}

func dirOrDefault(dir string) string {
	if dir == "" {
		return migrate.DefaultDir
	}
	return dir
}
