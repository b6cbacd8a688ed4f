package auth

import (
	"context"
	_ "embed"

	authmigrations "github.com/Sokol111/student-housing/internal/auth/migrations"
	"github.com/Sokol111/student-housing/pkg/http/apidocs"
	"github.com/Sokol111/student-housing/pkg/messaging/producer"
	"github.com/Sokol111/student-housing/pkg/persistence/mongo/migrations"
	"github.com/Sokol111/student-housing/pkg/security/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var openapiSpec []byte

var migrationsSource = migrations.Source{FS: authmigrations.FS}

type authOptions struct {
	repo        UserRepository
	tokenConfig *token.Config
}

type Option func(*authOptions)

// WithRepository replaces the mongo repository, so the module runs without a database.
func WithRepository(repo UserRepository) Option {
	return func(o *authOptions) {
		o.repo = repo
	}
}

// WithTokenConfig provides a static token Config.
func WithTokenConfig(cfg token.Config) Option {
	return func(o *authOptions) {
		o.tokenConfig = &cfg
	}
}

// NewAuthModule serves /register, /login and /verify. It needs the messaging
// module and, unless WithRepository is given, the persistence module.
func NewAuthModule(opts ...Option) fx.Option {
	o := &authOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var tokenOpts []token.TokenOption
	if o.tokenConfig != nil {
		tokenOpts = append(tokenOpts, token.WithTokenConfig(*o.tokenConfig))
	}

	repo := fx.Provide(newUserRepository)
	if o.repo != nil {
		repo = fx.Provide(func() UserRepository { return o.repo })
	}

	return fx.Options(
		token.NewTokenModule(tokenOpts...),
		fx.Module("auth",
			fx.Supply(&migrationsSource, &apidocs.Document{Spec: openapiSpec}),
			repo,
			fx.Provide(
				newConfig,
				func(e *producer.Emitter) EventEmitter { return e },
				newService,
				newHandler,
			),
			fx.Invoke(registerRoutes, wipeOnStart),
		),
	)
}

func wipeOnStart(lc fx.Lifecycle, cfg Config, repo UserRepository, log *zap.Logger) {
	if !cfg.WipeOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			deleted, err := repo.DeleteAll(ctx)
			if err != nil {
				return err
			}
			log.Warn("wiped users on start", zap.Int64("deleted", deleted))
			return nil
		},
	})
}
