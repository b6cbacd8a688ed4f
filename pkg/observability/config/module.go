package config

import (
	"fmt"
	"time"

	coreconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DefaultMetricsInterval      = 10 * time.Second
	DefaultShutdownTimeout      = 5 * time.Second
	DefaultRuntimeStatsInterval = time.Second

	// Readiness component names.
	TracingComponentName = "tracing"
	MetricsComponentName = "metrics"
)

// Config holds all observability configuration.
type Config struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP gRPC collector address. Spans are kept in-process when empty.
	Endpoint string `mapstructure:"endpoint"`
	// SampleRatio is the share of new traces that are recorded. Spans of a
	// trace started upstream (an HTTP caller or an event header) follow the
	// parent's decision. Defaults to 1.
	SampleRatio *float64 `mapstructure:"sample-ratio"`
}

// Ratio returns SampleRatio or 1 when unset.
func (c TracingConfig) Ratio() float64 {
	if c.SampleRatio == nil {
		return 1
	}
	return *c.SampleRatio
}

type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Interval time.Duration `mapstructure:"interval"`
}

type configOptions struct {
	config         *Config
	disableTracing bool
	disableMetrics bool
}

// Option configures the observability config module.
type Option func(*configOptions)

// WithConfig provides a static Config (useful for tests).
func WithConfig(cfg Config) Option {
	return func(opts *configOptions) {
		opts.config = &cfg
	}
}

// WithDisableTracing disables tracing regardless of configuration.
func WithDisableTracing() Option {
	return func(opts *configOptions) {
		opts.disableTracing = true
	}
}

// WithDisableMetrics disables metrics regardless of configuration.
func WithDisableMetrics() Option {
	return func(opts *configOptions) {
		opts.disableMetrics = true
	}
}

// NewObservabilityConfigModule provides Config, loaded from the viper
// "observability" section unless WithConfig is used.
func NewObservabilityConfigModule(opts ...Option) fx.Option {
	cfg := &configOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(provideConfig),
	)
}

func provideConfig(opts *configOptions, v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if opts.config != nil {
		cfg = *opts.config
	} else if err := coreconfig.Section(v, "observability").Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load observability config: %w", err)
	}

	applyDefaults(&cfg)
	applyDisableOptions(&cfg, opts)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger.Info("loaded observability config",
		zap.Bool("tracing", cfg.Tracing.Enabled),
		zap.Float64("sampleRatio", cfg.Tracing.Ratio()),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Metrics.Interval == 0 {
		cfg.Metrics.Interval = DefaultMetricsInterval
	}
}

func applyDisableOptions(cfg *Config, opts *configOptions) {
	if opts.disableTracing {
		cfg.Tracing.Enabled = false
	}
	if opts.disableMetrics {
		cfg.Metrics.Enabled = false
	}
}

// Validate checks that enabled exporters can be built.
func (c Config) Validate() error {
	if c.Metrics.Enabled && c.Metrics.Endpoint == "" {
		return fmt.Errorf("observability.metrics.endpoint is required when metrics are enabled")
	}
	if r := c.Tracing.Ratio(); r < 0 || r > 1 {
		return fmt.Errorf("observability.tracing.sample-ratio must be between 0 and 1, got %v", r)
	}
	if c.Metrics.Interval < 0 {
		return fmt.Errorf("observability.metrics.interval must be positive")
	}
	return nil
}
