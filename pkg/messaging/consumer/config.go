package consumer

import (
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
)

// DedupBackend selects the Deduplicator implementation.
type DedupBackend string

const (
	DedupMemory DedupBackend = "memory"
	DedupRedis  DedupBackend = "redis"
	DedupNone   DedupBackend = "none"

	defaultDedupTTL   = 24 * time.Hour
	defaultRedisAddr  = "localhost:6379"
	minDedupTTL       = time.Minute
	maxDedupTTL       = 30 * 24 * time.Hour
	dedupKeyPrefixFmt = "dedup:%s:"
)

// DedupConfig is read from the "dedup" section.
type DedupConfig struct {
	Backend DedupBackend `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func newDedupConfig(v *viper.Viper) (DedupConfig, error) {
	var cfg DedupConfig
	if err := coreconfig.Section(v, "dedup").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load dedup config: %w", err)
	}
	applyDedupDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid dedup config: %w", err)
	}
	return cfg, nil
}

func applyDedupDefaults(cfg *DedupConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DedupMemory
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultDedupTTL
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = defaultRedisAddr
	}
}

func (c DedupConfig) Validate() error {
	switch c.Backend {
	case DedupMemory, DedupRedis, DedupNone:
	default:
		return fmt.Errorf("dedup backend must be 'memory', 'redis' or 'none', got: %s", c.Backend)
	}
	if c.Backend != DedupNone && (c.TTL < minDedupTTL || c.TTL > maxDedupTTL) {
		return fmt.Errorf("dedup ttl must be between %v and %v, got: %v", minDedupTTL, maxDedupTTL, c.TTL)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db cannot be negative, got: %d", c.Redis.DB)
	}
	return nil
}
