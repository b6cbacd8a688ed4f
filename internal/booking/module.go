package booking

import (
	_ "embed"

	bookingmigrations "github.com/Sokol111/student-housing/internal/booking/migrations"
	"github.com/Sokol111/student-housing/pkg/http/apidocs"
	"github.com/Sokol111/student-housing/pkg/messaging/producer"
	"github.com/Sokol111/student-housing/pkg/persistence/mongo/migrations"
	"go.uber.org/fx"
)

//go:embed openapi.yaml
var openapiSpec []byte

var migrationsSource = migrations.Source{FS: bookingmigrations.FS}

type bookingOptions struct {
	repo BookingRepository
}

type Option func(*bookingOptions)

// WithRepository replaces the mongo repository.
func WithRepository(repo BookingRepository) Option {
	return func(o *bookingOptions) {
		o.repo = repo
	}
}

// NewBookingModule serves /bookings and publishes BOOKING_CREATED through the
// messaging module's emitter.
func NewBookingModule(opts ...Option) fx.Option {
	o := &bookingOptions{}
	for _, opt := range opts {
		opt(o)
	}

	repo := fx.Provide(newBookingRepository)
	if o.repo != nil {
		repo = fx.Provide(func() BookingRepository { return o.repo })
	}

	return fx.Module("booking",
		fx.Supply(&migrationsSource, &apidocs.Document{Spec: openapiSpec}),
		repo,
		fx.Provide(
			func(e *producer.Emitter) EventEmitter { return e },
			newService,
			newHandler,
		),
		fx.Invoke(registerRoutes),
	)
}
