package health

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewReadinessModule provides one readiness tracker behind its three interfaces.
func NewReadinessModule() fx.Option {
	return fx.Module("readiness",
		fx.Provide(
			newReadiness,
			func(r *readiness) ComponentManager { return r },
			func(r *readiness) ReadinessChecker { return r },
			func(r *readiness) ReadinessWaiter { return r },
		),
	)
}

// NewStandaloneReadiness is used outside fx, mostly by tests of other packages.
func NewStandaloneReadiness(logger *zap.Logger) interface {
	ComponentManager
	ReadinessChecker
	ReadinessWaiter
} {
	return newReadiness(logger)
}
