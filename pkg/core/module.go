package core

import (
	"time"

	"github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/Sokol111/student-housing/pkg/core/health"
	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/core/worker"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type coreOptions struct {
	appOptions    []config.AppConfigOption
	viperOptions  []config.ViperOption
	loggerOptions []logger.Option
	dotEnvPath    string
	disableDotEnv bool
}

// Option configures the core module.
type Option func(*coreOptions)

// WithAppConfig provides a static AppConfig instead of reading APP_* variables.
func WithAppConfig(cfg config.AppConfig) Option {
	return func(o *coreOptions) {
		o.appOptions = append(o.appOptions, config.WithAppConfig(cfg))
	}
}

// WithServiceName is the service name used when APP_SERVICE_NAME is unset.
func WithServiceName(name string) Option {
	return func(o *coreOptions) {
		o.appOptions = append(o.appOptions, config.WithDefaultServiceName(name))
	}
}

// WithLoggerConfig bypasses the logger section of the config file.
func WithLoggerConfig(cfg logger.Config) Option {
	return func(o *coreOptions) {
		o.loggerOptions = append(o.loggerOptions, logger.WithLoggerConfig(cfg))
	}
}

// WithDefaults registers viper defaults before the config file is read.
func WithDefaults(fn func(v *viper.Viper)) Option {
	return func(o *coreOptions) {
		o.viperOptions = append(o.viperOptions, config.WithViperSetup(fn))
	}
}

// WithDotEnv changes the .env location.
func WithDotEnv(path string) Option {
	return func(o *coreOptions) {
		o.dotEnvPath = path
	}
}

func WithoutEnvFile() Option {
	return func(o *coreOptions) {
		o.disableDotEnv = true
	}
}

func WithoutConfigFile() Option {
	return func(o *coreOptions) {
		o.viperOptions = append(o.viperOptions, config.WithoutConfigFile())
	}
}

// NewCoreModule provides configuration, logging, readiness and the worker registry.
//
//	core.NewCoreModule(core.WithServiceName("notification-service"))
func NewCoreModule(opts ...Option) fx.Option {
	o := &coreOptions{}
	for _, opt := range opts {
		opt(o)
	}

	dotEnv := fx.Options()
	if !o.disableDotEnv {
		dotEnv = config.NewDotEnvModule(o.dotEnvPath)
	}

	return fx.Options(
		fx.StartTimeout(5*time.Minute),
		fx.StopTimeout(time.Minute),

		dotEnv,
		config.NewAppConfigModule(o.appOptions...),
		config.NewViperModule(o.viperOptions...),
		logger.NewZapLoggingModule(o.loggerOptions...),
		health.NewReadinessModule(),
		worker.NewWorkersModule(),
	)
}
