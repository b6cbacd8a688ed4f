package modules

import (
	"github.com/Sokol111/student-housing/pkg/persistence/mongo"
	"github.com/Sokol111/student-housing/pkg/persistence/mongo/migrations"
	"go.uber.org/fx"
)

type persistenceOptions struct {
	mongoConfig *mongo.Config
}

// PersistenceOption configures the persistence module.
type PersistenceOption func(*persistenceOptions)

// WithMongoConfig provides a static mongo Config (useful for tests).
// When set, the mongo configuration is not loaded from viper.
func WithMongoConfig(cfg mongo.Config) PersistenceOption {
	return func(opts *persistenceOptions) {
		opts.mongoConfig = &cfg
	}
}

// NewPersistenceModule provides the mongo client and runs the service's migrations on start.
//
//	modules.NewPersistenceModule()
//	modules.NewPersistenceModule(modules.WithMongoConfig(mongo.Config{...}))
//
// A service registers its migrations with fx.Supply(&migrations.Source{...}).
func NewPersistenceModule(opts ...PersistenceOption) fx.Option {
	cfg := &persistenceOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	var mongoOpts []mongo.Option
	if cfg.mongoConfig != nil {
		mongoOpts = append(mongoOpts, mongo.WithMongoConfig(*cfg.mongoConfig))
	}

	return fx.Options(
		mongo.NewMongoModule(mongoOpts...),
		migrations.NewMigrationsModule(),
	)
}
