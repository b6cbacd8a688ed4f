package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type viperOptions struct {
	noConfigFile bool
	setup        func(v *viper.Viper)
}

// ViperOption is a functional option for configuring the Viper module.
type ViperOption func(*viperOptions)

// WithoutConfigFile ignores CONFIG_FILE; values come from env and defaults only.
func WithoutConfigFile() ViperOption {
	return func(o *viperOptions) {
		o.noConfigFile = true
	}
}

// WithViperSetup runs fn against the fresh viper instance before any config is read.
// Services use it to register their defaults.
func WithViperSetup(fn func(v *viper.Viper)) ViperOption {
	return func(o *viperOptions) {
		prev := o.setup
		o.setup = func(v *viper.Viper) {
			if prev != nil {
				prev(v)
			}
			fn(v)
		}
	}
}

// NewViperModule provides *viper.Viper for the rest of the application.
func NewViperModule(opts ...ViperOption) fx.Option {
	o := &viperOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Module("viper",
		fx.Provide(func(app AppConfig) (*viper.Viper, error) {
			file := app.ConfigFile
			if o.noConfigFile {
				file = ""
			}
			return newViper(file, o.setup)
		}),
		fx.Invoke(logViperConfig),
	)
}

func logViperConfig(logger *zap.Logger, v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		logger.Info("no config file specified, using defaults and environment")
	}
	logger.Info("configuration loaded",
		zap.String("configFile", v.ConfigFileUsed()),
		zap.Int("settingsCount", len(v.AllKeys())),
	)
}

func newViper(configFile string, setup func(v *viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if setup != nil {
		setup(v)
	}

	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", configFile, err)
	}

	return v, nil
}

// Section returns the sub-tree at key (dot separated), or an empty viper when
// the key is absent. Unlike viper.Sub the result keeps environment overrides
// and defaults of every known nested key.
func Section(v *viper.Viper, key string) *viper.Viper {
	sub := viper.New()
	var node any = v.AllSettings()
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return sub
		}
		node = m[part]
	}
	if m, ok := node.(map[string]any); ok {
		_ = sub.MergeConfigMap(m)
	}
	return sub
}
