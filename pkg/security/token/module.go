package token

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type tokenOptions struct {
	config *Config
}

// TokenOption configures the token module.
type TokenOption func(*tokenOptions)

// WithTokenConfig provides a static Config (useful for tests).
func WithTokenConfig(cfg Config) TokenOption {
	return func(opts *tokenOptions) {
		opts.config = &cfg
	}
}

// NewTokenModule provides Validator and Issuer. Issuer fails to build
// when only a public key is configured.
func NewTokenModule(opts ...TokenOption) fx.Option {
	o := &tokenOptions{}
	for _, opt := range opts {
		opt(o)
	}

	configProvider := fx.Provide(newConfig)
	if o.config != nil {
		configProvider = fx.Supply(*o.config)
	}

	return fx.Module("token",
		configProvider,
		fx.Provide(
			provideKeys,
			provideValidator,
			provideIssuer,
		),
	)
}

func provideKeys(conf Config, log *zap.Logger) (Keys, error) {
	keys, generated, err := LoadKeys(conf)
	if err != nil {
		return Keys{}, err
	}
	if generated {
		log.Warn("no token keys configured, generated an ephemeral key pair; tokens will not survive a restart")
	}
	return keys, nil
}

func provideValidator(keys Keys) Validator {
	return newValidator(keys, nil)
}

func provideIssuer(keys Keys, conf Config) (Issuer, error) {
	return newIssuer(keys, conf.TTL, nil)
}
