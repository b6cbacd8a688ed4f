package producer

import (
	"fmt"

	"github.com/Sokol111/student-housing/pkg/core/worker"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewProducerModule provides *Emitter and runs its publishing loop as a worker.
func NewProducerModule() fx.Option {
	return fx.Module("producer",
		fx.Provide(
			provideEmitter,
			worker.Register[*Emitter]("event-emitter"),
		),
	)
}

type emitterParams struct {
	fx.In
	Publisher bus.Publisher
	Config    config.Config
	Bus       config.BusConfig
	Tracer    trace.TracerProvider
	Meter     metric.MeterProvider
	Log       *zap.Logger
}

func provideEmitter(p emitterParams) (*Emitter, error) {
	metrics, err := newEmitterMetrics(p.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create emitter metrics: %w", err)
	}

	return newEmitter(emitterDeps{
		publisher: p.Publisher,
		conf:      p.Config.Producer,
		tracer:    p.Tracer,
		system:    string(p.Bus.Driver),
		metrics:   metrics,
		log:       p.Log,
	}), nil
}
