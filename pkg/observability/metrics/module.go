package metrics

import (
	"context"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/Sokol111/student-housing/pkg/core/health"
	otelconfig "github.com/Sokol111/student-housing/pkg/observability/config"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type metricsParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Log       *zap.Logger
	Conf      otelconfig.Config
	App       appconfig.AppConfig
	Readiness health.ComponentManager
}

// NewMetricsModule provides metric.MeterProvider; a noop provider when metrics are disabled.
// Enabled metrics include Go runtime statistics.
func NewMetricsModule() fx.Option {
	return fx.Provide(provideMetrics)
}

func provideMetrics(p metricsParams) (metric.MeterProvider, error) {
	log := p.Log.With(zap.String("component", "metrics"))
	if !p.Conf.Metrics.Enabled {
		log.Info("metrics disabled")
		return noop.NewMeterProvider(), nil
	}

	mp, err := newProvider(context.Background(), p.Conf.Metrics.Endpoint, p.Conf.Metrics.Interval, p.App)
	if err != nil {
		return nil, err
	}
	markReady := p.Readiness.AddComponent(otelconfig.MetricsComponentName)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			otel.SetMeterProvider(mp)
			startRuntimeMetrics(log, mp)
			log.Info("metrics initialized",
				zap.String("endpoint", p.Conf.Metrics.Endpoint),
				zap.Duration("interval", p.Conf.Metrics.Interval))
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, otelconfig.DefaultShutdownTimeout)
			defer cancel()
			return mp.Shutdown(ctx)
		},
	})
	return mp, nil
}

// startRuntimeMetrics is best effort; a service without GC statistics still serves.
func startRuntimeMetrics(log *zap.Logger, mp *sdkmetric.MeterProvider) {
	err := otelruntime.Start(
		otelruntime.WithMeterProvider(mp),
		otelruntime.WithMinimumReadMemStatsInterval(otelconfig.DefaultRuntimeStatsInterval),
	)
	if err != nil {
		log.Warn("failed to start runtime metrics", zap.Error(err))
	}
}
