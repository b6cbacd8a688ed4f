package config

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LoadDotEnv loads environment variables from path (".env" when empty).
// Existing variables are not overridden. A missing file is not an error.
func LoadDotEnv(path string) bool {
	if path == "" {
		path = ".env"
	}
	return godotenv.Load(path) == nil
}

// NewDotEnvModule loads a .env file eagerly and reports the outcome once the logger exists.
func NewDotEnvModule(path string) fx.Option {
	if path == "" {
		path = ".env"
	}
	loaded := LoadDotEnv(path)

	return fx.Module("dotenv",
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					if loaded {
						logger.Info("loaded .env file", zap.String("path", path))
					} else {
						logger.Debug("no .env file loaded", zap.String("path", path))
					}
					return nil
				},
			})
		}),
	)
}
