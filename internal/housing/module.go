package housing

import (
	_ "embed"

	housingmigrations "github.com/Sokol111/student-housing/internal/housing/migrations"
	"github.com/Sokol111/student-housing/pkg/http/apidocs"
	"github.com/Sokol111/student-housing/pkg/persistence/mongo/migrations"
	"go.uber.org/fx"
)

//go:embed openapi.yaml
var openapiSpec []byte

var migrationsSource = migrations.Source{FS: housingmigrations.FS}

type housingOptions struct {
	repo ListingRepository
}

type Option func(*housingOptions)

// WithRepository replaces the mongo repository.
func WithRepository(repo ListingRepository) Option {
	return func(o *housingOptions) {
		o.repo = repo
	}
}

// NewHousingModule serves the listings API. Without WithRepository it needs the persistence module.
func NewHousingModule(opts ...Option) fx.Option {
	o := &housingOptions{}
	for _, opt := range opts {
		opt(o)
	}

	repo := fx.Provide(newListingRepository)
	if o.repo != nil {
		repo = fx.Provide(func() ListingRepository { return o.repo })
	}

	return fx.Module("housing",
		fx.Supply(&migrationsSource, &apidocs.Document{Spec: openapiSpec}),
		repo,
		fx.Provide(newService, newHandler),
		fx.Invoke(registerRoutes),
	)
}
