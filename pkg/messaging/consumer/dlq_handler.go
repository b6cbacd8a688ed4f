package consumer

import (
	"context"
	"strconv"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Dead-letter headers describing where the message came from and why it was skipped.
const (
	HeaderDLQOriginalTopic     = "dlq.original.topic"
	HeaderDLQOriginalPartition = "dlq.original.partition"
	HeaderDLQOriginalOffset    = "dlq.original.offset"
	HeaderDLQError             = "dlq.error"
	HeaderDLQTimestamp         = "dlq.timestamp"
)

// DLQHandler forwards skipped messages to a dead-letter topic.
type DLQHandler interface {
	SendToDLQ(ctx context.Context, msg *bus.Message, processingErr error)
}

type dlqHandler struct {
	publisher bus.Publisher
	topicFor  func(source string) string
	tracer    *messageTracer
	now       func() time.Time
}

func newDLQHandler(publisher bus.Publisher, topicFor func(string) string, tracer *messageTracer) DLQHandler {
	return &dlqHandler{
		publisher: publisher,
		topicFor:  topicFor,
		tracer:    tracer,
		now:       time.Now,
	}
}

// SendToDLQ publishes synchronously. Failures are logged; the original message is committed regardless.
func (h *dlqHandler) SendToDLQ(ctx context.Context, msg *bus.Message, processingErr error) {
	dlqTopic := h.topicFor(msg.Topic)
	ctx, span := h.tracer.startDLQSpan(ctx, msg, dlqTopic)
	defer span.End()

	log := logger.FromContext(ctx).With(zap.String("dlq_topic", dlqTopic))

	headers := bus.CloneHeaders(msg.Headers)
	headers[HeaderDLQOriginalTopic] = msg.Topic
	headers[HeaderDLQOriginalPartition] = strconv.Itoa(int(msg.Partition))
	headers[HeaderDLQOriginalOffset] = strconv.FormatInt(msg.Offset, 10)
	headers[HeaderDLQError] = processingErr.Error()
	headers[HeaderDLQTimestamp] = h.now().UTC().Format(time.RFC3339)
	bus.InjectTrace(ctx, headers)

	pos, err := h.publisher.Publish(ctx, bus.Record{
		Topic:   dlqTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send message to DLQ")
		log.Error("failed to send message to DLQ", zap.Error(err))
		return
	}

	span.SetStatus(codes.Ok, "message sent to DLQ")
	log.Info("message sent to DLQ",
		zap.Int32("dlq_partition", pos.Partition),
		zap.Int64("dlq_offset", pos.Offset))
}

// noopDLQHandler is used when dead-lettering is disabled.
type noopDLQHandler struct{}

func (noopDLQHandler) SendToDLQ(ctx context.Context, _ *bus.Message, _ error) {
	logger.FromContext(ctx).Debug("dead-lettering disabled, message dropped")
}
