package producer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type emitterMetrics struct {
	published metric.Int64Counter
	failed    metric.Int64Counter
}

func newEmitterMetrics(mp metric.MeterProvider) (*emitterMetrics, error) {
	meter := mp.Meter("github.com/Sokol111/student-housing/pkg/messaging/producer")

	published, err := meter.Int64Counter("producer.events.published",
		metric.WithDescription("Events delivered to the bus"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter("producer.events.failed",
		metric.WithDescription("Events given up on, by reason"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, err
	}

	return &emitterMetrics{published: published, failed: failed}, nil
}

func (m *emitterMetrics) recordPublished(ctx context.Context, topic, kind string) {
	m.published.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("kind", kind),
	))
}

func (m *emitterMetrics) recordFailed(ctx context.Context, topic, kind, reason string) {
	m.failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}
