package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type moduleOptions struct {
	static *Config
}

// Option configures the logging module.
type Option func(*moduleOptions)

// WithLoggerConfig bypasses viper and uses cfg as is.
func WithLoggerConfig(cfg Config) Option {
	return func(o *moduleOptions) {
		o.static = &cfg
	}
}

// NewZapLoggingModule provides *zap.Logger and zap.AtomicLevel and routes fx events through zap.
func NewZapLoggingModule(opts ...Option) fx.Option {
	o := &moduleOptions{}
	for _, opt := range opts {
		opt(o)
	}

	provideConfig := fx.Provide(newConfig)
	if o.static != nil {
		provideConfig = fx.Supply(*o.static)
	}

	return fx.Module("logger",
		provideConfig,
		fx.Provide(provideLogger),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
}

type loggerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Conf      Config
	App       coreconfig.AppConfig `optional:"true"`
}

func provideLogger(p loggerParams) (*zap.Logger, zap.AtomicLevel, error) {
	logger, level, err := newLogger(p.Conf, p.App)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("failed to create logger: %w", err)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return ignoreSyncError(logger.Sync())
		},
	})

	return logger, level, nil
}

// Syncing stderr on linux returns EINVAL; that is not a failure worth reporting on shutdown.
func ignoreSyncError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && (errors.Is(pathErr.Err, syscall.EINVAL) || errors.Is(pathErr.Err, syscall.ENOTTY)) {
		return nil
	}
	return err
}
