// Package modules assembles the infrastructure every student-housing service runs on.
package modules

import (
	"github.com/Sokol111/student-housing/pkg/observability"
	"go.uber.org/fx"
)

// Service describes one deployable service.
type Service struct {
	// Name is the default APP_SERVICE_NAME, e.g. "auth-service".
	Name string
	// Label is reported by GET /health, e.g. "Auth Service".
	Label string
	// Port is the default server.port.
	Port int
	// Persistence adds the mongo client and the service's migrations.
	Persistence bool
}

// NewServiceModule returns the core, observability, HTTP, messaging and,
// when requested, persistence modules for svc. The service module itself is
// appended by the caller.
//
//	fx.New(
//	    modules.NewServiceModule(modules.Service{Name: "booking-service", Label: "Booking Service", Port: 3003, Persistence: true}),
//	    booking.NewBookingModule(),
//	)
func NewServiceModule(svc Service, coreOpts ...CoreOption) fx.Option {
	opts := []fx.Option{
		NewCoreModule(svc, coreOpts...),
		observability.NewObservabilityModule(),
		NewHTTPModule(svc),
		NewMessagingModule(),
	}
	if svc.Persistence {
		opts = append(opts, NewPersistenceModule())
	}
	return fx.Options(opts...)
}
