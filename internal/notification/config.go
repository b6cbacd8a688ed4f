package notification

import (
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultSendLatency = 500 * time.Millisecond
	maxSendLatency     = time.Minute
)

// Config is read from the "notification" section.
type Config struct {
	SendLatency time.Duration `mapstructure:"send-latency"`
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Section(v, "notification").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load notification config: %w", err)
	}
	if cfg.SendLatency == 0 {
		cfg.SendLatency = defaultSendLatency
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid notification config: %w", err)
	}

	logger.Info("loaded notification config", zap.Duration("sendLatency", cfg.SendLatency))
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SendLatency < 0 || c.SendLatency > maxSendLatency {
		return fmt.Errorf("send latency must be between 0 and %v, got: %v", maxSendLatency, c.SendLatency)
	}
	return nil
}
