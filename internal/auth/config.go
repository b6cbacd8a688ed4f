package auth

import (
	"fmt"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Config is read from the "auth" section.
type Config struct {
	BcryptCost int `mapstructure:"bcrypt-cost"`
	// WipeOnStart deletes every user when the service starts.
	WipeOnStart bool `mapstructure:"wipe-on-start"`
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Section(v, "auth").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load auth config: %w", err)
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid auth config: %w", err)
	}

	logger.Info("loaded auth config",
		zap.Int("bcryptCost", cfg.BcryptCost),
		zap.Bool("wipeOnStart", cfg.WipeOnStart),
	)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d, got: %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}
