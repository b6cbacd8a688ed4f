package config

import (
	"fmt"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewMessagingConfigModule provides Config and BusConfig.
func NewMessagingConfigModule() fx.Option {
	return fx.Provide(
		newBusConfig,
		newConfig,
	)
}

func newBusConfig(v *viper.Viper, app coreconfig.AppConfig) (BusConfig, error) {
	var cfg BusConfig
	if err := coreconfig.Section(v, "bus").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load bus config: %w", err)
	}
	applyBusDefaults(&cfg, app.IsStandalone())
	if err := validateBusConfig(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid bus config: %w", err)
	}
	return cfg, nil
}

func newConfig(v *viper.Viper, app coreconfig.AppConfig, bus BusConfig, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Section(v, "kafka").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load kafka config: %w", err)
	}

	applyDefaults(&cfg, app.ServiceName)

	if err := validateConfig(&cfg, bus.Driver); err != nil {
		return cfg, fmt.Errorf("invalid kafka config: %w", err)
	}

	logger.Info("loaded messaging config",
		zap.String("driver", string(bus.Driver)),
		zap.String("brokers", cfg.Brokers),
		zap.String("clientId", cfg.ClientID),
		zap.String("groupId", cfg.Consumer.GroupID),
		zap.Strings("topics", cfg.Consumer.Topics),
	)
	return cfg, nil
}
