package logger

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config controls how the service logger is built.
type Config struct {
	Level zapcore.Level

	// Development switches to console encoding with human-readable output.
	Development bool

	// OutputPaths defaults to stderr when empty.
	OutputPaths      []string
	ErrorOutputPaths []string

	// StacktraceLevel defaults to error.
	StacktraceLevel zapcore.Level
}

// DefaultConfig is used when the logger section is absent.
func DefaultConfig() Config {
	return Config{
		Level:           zapcore.InfoLevel,
		StacktraceLevel: zapcore.ErrorLevel,
	}
}

func (c Config) Validate() error {
	if err := validatePaths(c.OutputPaths, "output-paths"); err != nil {
		return err
	}
	return validatePaths(c.ErrorOutputPaths, "error-output-paths")
}

func validatePaths(paths []string, field string) error {
	for i, path := range paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%s[%d] cannot be empty or whitespace", field, i)
		}
	}
	return nil
}

type rawConfig struct {
	Level            string   `mapstructure:"level"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output-paths"`
	ErrorOutputPaths []string `mapstructure:"error-output-paths"`
	StacktraceLevel  string   `mapstructure:"stacktrace-level"`
}

func newConfig(v *viper.Viper) (Config, error) {
	sub := v.Sub("logger")
	if sub == nil {
		return DefaultConfig(), nil
	}

	var raw rawConfig
	if err := sub.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("failed to load logger config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Development = raw.Development
	cfg.OutputPaths = raw.OutputPaths
	cfg.ErrorOutputPaths = raw.ErrorOutputPaths

	if raw.Level != "" {
		level, err := zapcore.ParseLevel(raw.Level)
		if err != nil {
			return Config{}, fmt.Errorf("invalid log level '%s': %w", raw.Level, err)
		}
		cfg.Level = level
	}

	if raw.StacktraceLevel != "" {
		level, err := zapcore.ParseLevel(raw.StacktraceLevel)
		if err != nil {
			return Config{}, fmt.Errorf("invalid stacktrace level '%s': %w", raw.StacktraceLevel, err)
		}
		cfg.StacktraceLevel = level
	}

	return cfg, nil
}
