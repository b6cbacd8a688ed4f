package mongo

import (
	"context"

	"github.com/Sokol111/student-housing/pkg/core/health"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type mongoOptions struct {
	config *Config
}

// Option configures the mongo module.
type Option func(*mongoOptions)

// WithMongoConfig supplies a static Config instead of loading it from viper.
// Unset fields get the usual defaults.
func WithMongoConfig(cfg Config) Option {
	return func(o *mongoOptions) {
		o.config = &cfg
	}
}

// NewMongoModule provides Mongo and Admin. The client connects on start and
// the readiness component "mongo" is marked once the first ping succeeds.
func NewMongoModule(opts ...Option) fx.Option {
	o := &mongoOptions{}
	for _, opt := range opts {
		opt(o)
	}

	configProvider := fx.Provide(newConfig)
	if o.config != nil {
		cfg := *o.config
		applyDefaults(&cfg, "")
		configProvider = fx.Supply(cfg)
	}

	return fx.Module("mongo",
		configProvider,
		fx.Provide(provideMongo),
	)
}

type mongoParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Log       *zap.Logger
	Conf      Config
	Readiness health.ComponentManager
	Tracer    trace.TracerProvider `optional:"true"`
}

func provideMongo(p mongoParams) (Mongo, Admin, error) {
	log := p.Log.With(zap.String("component", "mongo"))
	m, err := newMongo(log, p.Conf, p.Tracer)
	if err != nil {
		return nil, nil, err
	}

	markReady := p.Readiness.AddComponent("mongo")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.connect(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return m.disconnect(ctx)
		},
	})

	return m, m, nil
}
