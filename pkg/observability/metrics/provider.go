package metrics

import (
	"context"
	"time"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	otelinternal "github.com/Sokol111/student-housing/pkg/observability/internal"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// HandlerDurationBuckets (seconds) span a simulated send of a few milliseconds up
// to a gateway call retried until the processing timeout.
var HandlerDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// newProvider exports to the OTLP collector at endpoint every interval.
func newProvider(ctx context.Context, endpoint string, interval time.Duration, appCfg appconfig.AppConfig) (*sdkmetric.MeterProvider, error) {
	exp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	return newMeterProvider(ctx, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)), appCfg)
}

func newMeterProvider(ctx context.Context, reader sdkmetric.Reader, appCfg appconfig.AppConfig) (*sdkmetric.MeterProvider, error) {
	res, err := otelinternal.NewResource(ctx, appCfg)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
		sdkmetric.WithView(durationViews()...),
	), nil
}

// durationViews replace the SDK default buckets, which stop at 10s and are too
// coarse below 25ms for message handlers.
func durationViews() []sdkmetric.View {
	return []sdkmetric.View{
		sdkmetric.NewView(
			sdkmetric.Instrument{Name: "consumer.*.duration"},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: HandlerDurationBuckets}},
		),
	}
}
