package consumer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// retryExecutor runs a handler with panic recovery, a per-attempt timeout and bounded retries.
type retryExecutor struct {
	maxAttempts       int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	processingTimeout time.Duration
}

func newRetryExecutor(maxAttempts int, initialBackoff, maxBackoff, processingTimeout time.Duration) *retryExecutor {
	return &retryExecutor{
		maxAttempts:       maxAttempts,
		initialBackoff:    initialBackoff,
		maxBackoff:        maxBackoff,
		processingTimeout: processingTimeout,
	}
}

// Execute returns nil, ctx.Err() when the caller's context ended, or the last
// error wrapped with ErrHandler unless it already carries a more specific class.
func (r *retryExecutor) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	log := logger.FromContext(ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := r.executeWithPanicRecovery(ctx, fn)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case isNotRetryable(err):
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		r.logError(log, err, attempt, next)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(r.newBackOff(), ctx), notify)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ErrDecode) || errors.Is(err, ErrDuplicateDelivery) || errors.Is(err, bus.ErrBusUnavailable) {
		return err
	}
	if !errors.Is(err, ErrHandler) {
		err = fmt.Errorf("%w: %w", ErrHandler, err)
	}
	return fmt.Errorf("gave up after %d attempt(s): %w", attempt, err)
}

func (r *retryExecutor) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialBackoff
	b.MaxInterval = r.maxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(max(r.maxAttempts-1, 0)))
}

func (r *retryExecutor) executeWithPanicRecovery(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if r.processingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.processingTimeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			// A panic points at a bug; retrying will not help.
			err = Permanent(fmt.Errorf("%w: %w", ErrHandler, &PanicError{
				Panic: rec,
				Stack: debug.Stack(),
			}))
		}
	}()

	return fn(ctx)
}

func isNotRetryable(err error) bool {
	return errors.Is(err, ErrPermanent) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrDuplicateDelivery)
}

func (r *retryExecutor) logError(log *zap.Logger, err error, attempt int, next time.Duration) {
	fields := []zap.Field{
		zap.Int("attempt", attempt),
		zap.Int("maxAttempts", r.maxAttempts),
		zap.Duration("retryIn", next),
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		fields = append(fields,
			zap.Any("panic", panicErr.Panic),
			zap.ByteString("stack", panicErr.Stack),
		)
	} else {
		fields = append(fields, zap.Error(err))
	}

	log.Warn("failed to process message, retrying", fields...)
}
