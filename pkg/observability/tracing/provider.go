package tracing

import (
	"context"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	otelconfig "github.com/Sokol111/student-housing/pkg/observability/config"
	otelinternal "github.com/Sokol111/student-housing/pkg/observability/internal"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// newTracerProvider creates a new OpenTelemetry TracerProvider.
// Without a collector endpoint spans are still created and sampled, so trace
// ids reach logs and event headers, but nothing is exported.
func newTracerProvider(ctx context.Context, log *zap.Logger, cfg otelconfig.TracingConfig, appCfg appconfig.AppConfig) (*sdktrace.TracerProvider, error) {
	res, err := otelinternal.NewResource(ctx, appCfg)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler(cfg.Ratio())),
		sdktrace.WithResource(res),
	}

	if cfg.Endpoint == "" {
		log.Info("tracing: no collector endpoint, running in local mode")
		return sdktrace.NewTracerProvider(opts...), nil
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(append(opts, sdktrace.WithBatcher(exp))...), nil
}

// sampler keeps the upstream decision for propagated traces: a booking sampled
// at the HTTP edge stays sampled through the notification consumer.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
