package consumer

import (
	"context"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MessageDurationMetric is the histogram of time spent on one message, retries included.
const MessageDurationMetric = "consumer.message.duration"

type consumerMetrics struct {
	handled     metric.Int64Counter
	redelivered metric.Int64Counter
	duration    metric.Float64Histogram
}

func newConsumerMetrics(mp metric.MeterProvider) (*consumerMetrics, error) {
	meter := mp.Meter("github.com/Sokol111/student-housing/pkg/messaging/consumer")

	handled, err := meter.Int64Counter("consumer.messages.handled",
		metric.WithDescription("Messages handled by the consumer group runtime, by result"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, err
	}

	redelivered, err := meter.Int64Counter("consumer.messages.redelivered",
		metric.WithDescription("Messages delivered again at or below an already handled offset"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(MessageDurationMetric,
		metric.WithDescription("Time from dispatch to the commit decision of one message"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &consumerMetrics{handled: handled, redelivered: redelivered, duration: duration}, nil
}

func (m *consumerMetrics) recordHandled(ctx context.Context, msg *bus.Message, class Class) {
	m.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", msg.Topic),
		attribute.String("result", class.String()),
	))
}

func (m *consumerMetrics) recordRedelivered(ctx context.Context, msg *bus.Message) {
	m.redelivered.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", msg.Topic)))
}

func (m *consumerMetrics) recordDuration(ctx context.Context, msg *bus.Message, class Class, d time.Duration) {
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("topic", msg.Topic),
		attribute.String("result", class.String()),
	))
}
