package server

import (
	"context"
	"net/http"

	"github.com/Sokol111/student-housing/pkg/core/health"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type moduleOptions struct {
	static *Config
}

type Option func(*moduleOptions)

// WithServerConfig skips viper and uses cfg with defaults applied.
func WithServerConfig(cfg Config) Option {
	return func(o *moduleOptions) {
		o.static = &cfg
	}
}

func NewHTTPServerModule(opts ...Option) fx.Option {
	o := &moduleOptions{}
	for _, opt := range opts {
		opt(o)
	}

	provideConfig := fx.Provide(newConfig)
	if o.static != nil {
		cfg := *o.static
		cfg.SetDefaults()
		provideConfig = fx.Supply(cfg)
	}

	return fx.Module("http-server",
		provideConfig,
		fx.Invoke(startHTTPServer),
	)
}

func startHTTPServer(lc fx.Lifecycle, log *zap.Logger, conf Config, handler http.Handler, readiness health.ComponentManager, shutdowner fx.Shutdowner) {
	srv := newServer(log, conf, handler)
	markReady := readiness.AddComponent("http-server")

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ServeWithReadyCallback(markReady); err != nil {
					log.Error("HTTP server failed, shutting down application", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1)) //nolint:errcheck // best-effort
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
