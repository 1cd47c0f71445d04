package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot, only in dev with
// CHATSTORE_AUTO_MIGRATE on. Other environments use cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if err := Validate(); err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := setup(); err != nil {
		return err
	}

	before, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, Dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"from_version": before,
		"to_version":   after,
	}), "migrate.dev_autorun")
	return nil
}
