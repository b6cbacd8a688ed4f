package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	metadataTimeout  = 5 * time.Second
	probeMaxInterval = 10 * time.Second
)

// WaitForBrokers polls broker metadata with exponential backoff until a broker answers.
func WaitForBrokers(ctx context.Context, p metadataProvider, log *zap.Logger) error {
	log.Info("waiting for kafka brokers")

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = probeMaxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return probeBrokers(ctx, p)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Debug("brokers not reachable yet",
			zap.Int("attempt", attempt),
			zap.Duration("retryIn", next),
			zap.Error(err))
	})
	if err != nil {
		return err
	}

	log.Info("kafka brokers reachable", zap.Int("attempts", attempt))
	return nil
}

func probeBrokers(ctx context.Context, p metadataProvider) error {
	timeout := metadataTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return ctx.Err()
	}

	meta, err := p.GetMetadata(nil, false, int(timeout.Milliseconds()))
	if err != nil {
		return bus.Unavailable(err)
	}
	if len(meta.Brokers) == 0 {
		return bus.Unavailable(errors.New("metadata lists no brokers"))
	}
	return nil
}
