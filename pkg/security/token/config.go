package token

import (
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultTTL = 24 * time.Hour

// Config holds the PASETO v4 key material.
type Config struct {
	// SecretKey is the hex-encoded Ed25519 secret key used to sign tokens.
	SecretKey string `mapstructure:"secret-key"`
	// PublicKey is the hex-encoded Ed25519 public key. Derived from SecretKey when empty.
	PublicKey string        `mapstructure:"public-key"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func newConfig(v *viper.Viper, app coreconfig.AppConfig, log *zap.Logger) (Config, error) {
	var cfg Config
	if err := coreconfig.Section(v, "security.token").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load token config: %w", err)
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.TTL < 0 {
		return cfg, fmt.Errorf("security.token.ttl must be positive")
	}
	if cfg.SecretKey == "" && cfg.PublicKey == "" && !app.IsStandalone() {
		return cfg, fmt.Errorf("security.token.secret-key or security.token.public-key is required")
	}

	log.Info("loaded token config",
		zap.Duration("ttl", cfg.TTL),
		zap.Bool("signing", cfg.SecretKey != ""),
	)
	return cfg, nil
}
