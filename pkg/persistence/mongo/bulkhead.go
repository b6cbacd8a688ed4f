package mongo

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Bulkhead limits concurrent collection calls.
type Bulkhead struct {
	semaphore *semaphore.Weighted
	limit     int
	log       *zap.Logger
}

// NewBulkhead returns nil when limit is not positive, which disables the limit.
func NewBulkhead(limit int, log *zap.Logger) *Bulkhead {
	if limit <= 0 {
		return nil
	}
	log.Info("mongo bulkhead initialized", zap.Int("limit", limit))
	return &Bulkhead{
		semaphore: semaphore.NewWeighted(int64(limit)),
		limit:     limit,
		log:       log,
	}
}

// Execute waits for a free slot until ctx is done, then runs fn.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.semaphore.Acquire(ctx, 1); err != nil {
		b.log.Warn("mongo bulkhead acquisition failed", zap.Int("limit", b.limit), zap.Error(err))
		return fmt.Errorf("mongo bulkhead full: %w", err)
	}
	defer b.semaphore.Release(1)
	return fn()
}
