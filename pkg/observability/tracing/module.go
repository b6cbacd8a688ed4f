package tracing

import (
	"context"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/Sokol111/student-housing/pkg/core/health"
	otelconfig "github.com/Sokol111/student-housing/pkg/observability/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type tracingParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Log       *zap.Logger
	Conf      otelconfig.Config
	App       appconfig.AppConfig
	Readiness health.ComponentManager
}

// NewTracingModule provides trace.TracerProvider; a noop provider when tracing is disabled.
func NewTracingModule() fx.Option {
	return fx.Provide(provideTracing)
}

func provideTracing(p tracingParams) (trace.TracerProvider, error) {
	// Installed either way: a service that records no spans still forwards the
	// traceparent it received into the event headers it publishes.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log := p.Log.With(zap.String("component", "tracing"))
	if !p.Conf.Tracing.Enabled {
		log.Info("tracing disabled")
		return noop.NewTracerProvider(), nil
	}

	tp, err := newTracerProvider(context.Background(), log, p.Conf.Tracing, p.App)
	if err != nil {
		return nil, err
	}
	markReady := p.Readiness.AddComponent(otelconfig.TracingComponentName)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			otel.SetTracerProvider(tp)
			log.Info("tracing initialized",
				zap.String("endpoint", p.Conf.Tracing.Endpoint),
				zap.Float64("sampleRatio", p.Conf.Tracing.Ratio()))
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, otelconfig.DefaultShutdownTimeout)
			defer cancel()
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}
