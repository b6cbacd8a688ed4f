// Package observability provides the OpenTelemetry tracer and meter providers
// consumed by the HTTP middleware, the mongo client and the messaging layer.
// Disabled signals get noop providers, so consumers never see nil.
package observability

import (
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/observability/config"
	"github.com/Sokol111/student-housing/pkg/observability/metrics"
	"github.com/Sokol111/student-housing/pkg/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Option configures the observability module.
type Option = config.Option

// WithConfig bypasses the "observability" config section.
func WithConfig(cfg config.Config) Option { return config.WithConfig(cfg) }

// WithoutTracing installs a noop tracer provider whatever the config says.
func WithoutTracing() Option { return config.WithDisableTracing() }

// WithoutMetrics installs a noop meter provider whatever the config says.
func WithoutMetrics() Option { return config.WithDisableMetrics() }

// exportErrorInterval bounds how often an unreachable collector is reported at WARN.
const exportErrorInterval = time.Minute

// NewObservabilityModule provides trace.TracerProvider and metric.MeterProvider
// and routes OpenTelemetry export errors into the service log.
//
//	observability.NewObservabilityModule()
//	observability.NewObservabilityModule(observability.WithoutTracing(), observability.WithoutMetrics())
func NewObservabilityModule(opts ...Option) fx.Option {
	return fx.Options(
		config.NewObservabilityConfigModule(opts...),
		fx.Invoke(installErrorHandler),
		tracing.NewTracingModule(),
		metrics.NewMetricsModule(),
	)
}

func installErrorHandler(log *zap.Logger) {
	throttler := logger.NewLogThrottler(log.With(zap.String("component", "otel")), exportErrorInterval)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		throttler.Warn("export", "telemetry export failed", zap.Error(err))
	}))
}
