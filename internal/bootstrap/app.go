package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"esilogis/internal/bootstrap/config"
	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
	"esilogis/internal/infrastructure/persistence/model"
	"esilogis/internal/infrastructure/persistence/schema"
)

type App struct {
	Config config.Config
	DB     *gorm.DB
}

// InitSchema migrates every table and records the schema version.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	previous, err := schema.CurrentVersion(ctx, a.DB)
	if err != nil {
		// The meta table does not exist before the first migration.
		previous = ""
	}
	logging.Info(logCtx, "start schema migration", slog.String("from_version", previous), slog.String("to_version", schema.Version))

	tables := append(model.All(), &schema.Meta{})
	if err := a.DB.WithContext(ctx).AutoMigrate(tables...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}
	if err := schema.RecordVersion(ctx, a.DB); err != nil {
		return err
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}
