package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-promotions/pkg/config"
	"github.com/angelmondragon/storefront-promotions/pkg/db"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
)

// MaybeRunDev applies the embedded migrations when running in dev with
// STOREFRONT_AUTO_MIGRATE enabled. Other environments migrate through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	src := Embedded()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": src.String()})
	logg.Info(ctx, "migrate.autorun_start")

	if err := Run(ctx, sqlDB, src, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	version, err := CurrentVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "migrate.autorun_complete")
	return nil
}
