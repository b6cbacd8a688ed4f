package migrations

import (
	"context"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/persistence/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewMigrationsModule runs the service's migrations on start, after mongo is connected.
// Services without a Source get no migrator.
func NewMigrationsModule() fx.Option {
	return fx.Invoke(runOnStart)
}

type migrateParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Log       *zap.Logger
	Conf      mongo.Config
	Mongo     mongo.Mongo
	Source    *Source `optional:"true"`
}

func runOnStart(p migrateParams) error {
	if p.Source == nil {
		return nil
	}
	if !p.Conf.Migrations.Enabled {
		p.Log.Info("mongo migrations disabled")
		return nil
	}

	uri, err := p.Conf.MigrationsURI()
	if err != nil {
		return err
	}
	m, err := newMigrator(*p.Source, uri, p.Log.With(zap.String("component", "migrations")))
	if err != nil {
		return err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := m.Up(); err != nil {
				return fmt.Errorf("failed to run mongo migrations: %w", err)
			}
			return nil
		},
	})
	return nil
}
