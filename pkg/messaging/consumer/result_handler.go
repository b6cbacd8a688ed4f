package consumer

import (
	"context"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// committer is the part of bus.Source the result handler needs.
type committer interface {
	Commit(ctx context.Context, msg *bus.Message) error
}

// resultHandler applies the commit, dedup and dead-letter policy of a classified result.
type resultHandler struct {
	dlq     DLQHandler
	dedup   Deduplicator
	metrics *consumerMetrics
}

func newResultHandler(dlq DLQHandler, dedup Deduplicator, metrics *consumerMetrics) *resultHandler {
	return &resultHandler{dlq: dlq, dedup: dedup, metrics: metrics}
}

func (h *resultHandler) handle(ctx context.Context, src committer, msg *bus.Message, key string, err error, span trace.Span) Class {
	log := logger.FromContext(ctx)
	class := Classify(err)

	switch class {
	case ClassSuccess:
		span.SetStatus(codes.Ok, "message processed successfully")
		if markErr := h.dedup.Mark(ctx, key); markErr != nil {
			log.Warn("failed to remember handled event", zap.String("dedup_key", key), zap.Error(markErr))
		}

	case ClassDuplicate:
		span.SetStatus(codes.Ok, "duplicate delivery skipped")
		log.Info("skipping duplicate delivery", zap.String("dedup_key", key))

	case ClassDecode:
		span.RecordError(err)
		span.SetStatus(codes.Error, "undecodable message skipped")
		log.Warn("skipping undecodable message", zap.Error(err))
		h.dlq.SendToDLQ(ctx, msg, err)

	case ClassHandler:
		span.RecordError(err)
		span.SetStatus(codes.Error, "message processing failed")
		log.Error("message processing failed, skipping", zap.Error(err))
		h.dlq.SendToDLQ(ctx, msg, err)

	case ClassAbort:
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing aborted")
		log.Warn("processing aborted, message will be redelivered", zap.Error(err))
	}

	h.metrics.recordHandled(ctx, msg, class)

	if class.Commits() {
		// Completed work is committed even when shutdown has started.
		if commitErr := src.Commit(context.WithoutCancel(ctx), msg); commitErr != nil {
			log.Error("failed to commit offset", zap.Error(commitErr))
		}
	}
	return class
}
