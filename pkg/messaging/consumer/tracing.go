package consumer

import (
	"context"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// messageTracer creates spans for consumed and dead-lettered messages.
type messageTracer struct {
	tracer trace.Tracer
	system string
}

func newMessageTracer(tp trace.TracerProvider, system string) *messageTracer {
	return &messageTracer{
		tracer: tp.Tracer("github.com/Sokol111/student-housing/pkg/messaging/consumer"),
		system: system,
	}
}

// startConsumerSpan continues the producer's trace when the headers carry one.
func (t *messageTracer) startConsumerSpan(ctx context.Context, msg *bus.Message) (context.Context, trace.Span) {
	ctx = bus.ExtractTrace(ctx, msg.Headers)
	return t.tracer.Start(ctx, "messaging.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", t.system),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.partition", int(msg.Partition)),
			attribute.Int64("messaging.offset", msg.Offset),
			attribute.String("messaging.message.key", string(msg.Key)),
		),
	)
}

func (t *messageTracer) startDLQSpan(ctx context.Context, msg *bus.Message, dlqTopic string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "messaging.send_to_dlq",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", t.system),
			attribute.String("messaging.destination", dlqTopic),
			attribute.String("messaging.source.topic", msg.Topic),
			attribute.Int("messaging.source.partition", int(msg.Partition)),
			attribute.Int64("messaging.source.offset", msg.Offset),
			attribute.String("messaging.message.key", string(msg.Key)),
		),
	)
}
