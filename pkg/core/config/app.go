package config

import (
	"fmt"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Environment variable names
const (
	envAppEnv            = "APP_ENV"
	envAppServiceName    = "APP_SERVICE_NAME"
	envAppServiceVersion = "APP_SERVICE_VERSION"
	envConfigFile        = "CONFIG_FILE"
)

// Environment is the deployment environment of a service.
type Environment string

const (
	EnvStandalone  Environment = "standalone"
	EnvDevelopment Environment = "dev"
	EnvProduction  Environment = "pro"
)

// IsValid reports whether the environment is one of standalone, dev or pro.
func (e Environment) IsValid() bool {
	switch e {
	case EnvStandalone, EnvDevelopment, EnvProduction:
		return true
	}
	return false
}

func (e Environment) String() string {
	return string(e)
}

// AppConfig identifies the running service.
type AppConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    Environment
	// ConfigFile is the YAML file viper reads, empty when none was given.
	ConfigFile string
}

// IsStandalone reports whether the service runs without external infrastructure.
func (c AppConfig) IsStandalone() bool {
	return c.Environment == EnvStandalone
}

type appConfigOptions struct {
	static         *AppConfig
	defaultService string
}

// AppConfigOption configures the app config module.
type AppConfigOption func(*appConfigOptions)

// WithAppConfig supplies a static AppConfig instead of reading the environment.
func WithAppConfig(cfg AppConfig) AppConfigOption {
	return func(o *appConfigOptions) {
		o.static = &cfg
	}
}

// WithDefaultServiceName is used when APP_SERVICE_NAME is not set.
func WithDefaultServiceName(name string) AppConfigOption {
	return func(o *appConfigOptions) {
		o.defaultService = name
	}
}

// NewAppConfigModule provides AppConfig loaded from environment variables.
//
// Required environment variables:
//   - APP_ENV: standalone, dev or pro
//   - APP_SERVICE_VERSION
//
// Optional:
//   - APP_SERVICE_NAME (falls back to WithDefaultServiceName)
//   - CONFIG_FILE
func NewAppConfigModule(opts ...AppConfigOption) fx.Option {
	o := &appConfigOptions{}
	for _, opt := range opts {
		opt(o)
	}

	provide := fx.Provide(func() (AppConfig, error) { return newAppConfig(o.defaultService) })
	if o.static != nil {
		provide = fx.Supply(*o.static)
	}

	return fx.Module("appconfig",
		provide,
		fx.Invoke(func(logger *zap.Logger, conf AppConfig) {
			logger.Info("loaded application configuration",
				zap.String("service", conf.ServiceName),
				zap.String("version", conf.ServiceVersion),
				zap.Stringer("environment", conf.Environment),
				zap.String("configFile", conf.ConfigFile),
			)
		}),
	)
}

func newAppConfig(defaultService string) (AppConfig, error) {
	env := Environment(os.Getenv(envAppEnv))
	if !env.IsValid() {
		return AppConfig{}, fmt.Errorf("%s must be one of standalone, dev, pro, got %q", envAppEnv, env)
	}

	serviceName := os.Getenv(envAppServiceName)
	if serviceName == "" {
		serviceName = defaultService
	}
	if serviceName == "" {
		return AppConfig{}, fmt.Errorf("%s is required", envAppServiceName)
	}

	serviceVersion := os.Getenv(envAppServiceVersion)
	if serviceVersion == "" {
		return AppConfig{}, fmt.Errorf("%s is required", envAppServiceVersion)
	}

	return AppConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    env,
		ConfigFile:     os.Getenv(envConfigFile),
	}, nil
}
