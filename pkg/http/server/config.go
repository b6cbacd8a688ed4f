package server

import (
	"fmt"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port int `mapstructure:"port"`

	Connection ConnectionConfig `mapstructure:"connection"`

	// Timeout is enforced by middleware so that clients receive a 504 body.
	Timeout   TimeoutConfig   `mapstructure:"timeout"`
	RateLimit RateLimitConfig `mapstructure:"rate-limit"`
	Bulkhead  BulkheadConfig  `mapstructure:"bulkhead"`
}

// ConnectionConfig holds net/http timeouts; these close the connection without a response.
type ConnectionConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ReadTimeout       time.Duration `mapstructure:"read-timeout"`
	WriteTimeout      time.Duration `mapstructure:"write-timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle-timeout"`
	MaxHeaderBytes    int           `mapstructure:"max-header-bytes"`
}

type TimeoutConfig struct {
	Enabled        *bool         `mapstructure:"enabled"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
}

type RateLimitConfig struct {
	Enabled           *bool `mapstructure:"enabled"`
	RequestsPerSecond int   `mapstructure:"requests-per-second"`
	Burst             int   `mapstructure:"burst"`
}

type BulkheadConfig struct {
	Enabled       *bool         `mapstructure:"enabled"`
	MaxConcurrent int           `mapstructure:"max-concurrent"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if err := config.Section(v, "server").UnmarshalExact(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load server config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger.Info("loaded server config", zap.Any("config", cfg))
	return cfg, nil
}

// SetDefaults fills zero values; it is exported for static configs built in tests.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	c.Timeout.setDefaults()
	c.Connection.setDefaults(c.Timeout)
	c.RateLimit.setDefaults()
	c.Bulkhead.setDefaults()
}

func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Port)
	}
	if c.RateLimit.IsEnabled() && c.RateLimit.Burst < 1 {
		return fmt.Errorf("server.rate-limit.burst must be positive, got %d", c.RateLimit.Burst)
	}
	if c.Bulkhead.IsEnabled() && c.Bulkhead.MaxConcurrent < 1 {
		return fmt.Errorf("server.bulkhead.max-concurrent must be positive, got %d", c.Bulkhead.MaxConcurrent)
	}
	return nil
}

func (c *ConnectionConfig) setDefaults(timeout TimeoutConfig) {
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 10 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		// must outlive the request timeout so the 504 body can still be written
		c.WriteTimeout = 40 * time.Second
		if timeout.IsEnabled() && timeout.RequestTimeout > 0 {
			c.WriteTimeout = timeout.RequestTimeout + 10*time.Second
		}
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func (c TimeoutConfig) IsEnabled() bool   { return c.Enabled != nil && *c.Enabled }
func (c RateLimitConfig) IsEnabled() bool { return c.Enabled != nil && *c.Enabled }
func (c BulkheadConfig) IsEnabled() bool  { return c.Enabled != nil && *c.Enabled }

func (c *TimeoutConfig) setDefaults() {
	if c.Enabled == nil {
		c.Enabled = boolPtr(true)
	}
	if *c.Enabled && c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

func (c *RateLimitConfig) setDefaults() {
	if c.Enabled == nil {
		c.Enabled = boolPtr(true)
	}
	if !*c.Enabled {
		return
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 1000
	}
	if c.Burst == 0 {
		c.Burst = 100
	}
}

func (c *BulkheadConfig) setDefaults() {
	if c.Enabled == nil {
		c.Enabled = boolPtr(true)
	}
	if !*c.Enabled {
		return
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 500
	}
	if c.Timeout == 0 {
		c.Timeout = 100 * time.Millisecond
	}
}
