package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Handler handles one message. Errors are classified with Classify.
type Handler interface {
	Handle(ctx context.Context, msg *bus.Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *bus.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *bus.Message) error {
	return f(ctx, msg)
}

// State is the lifecycle position of a Runtime.
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateSubscribed
	StateConsuming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateSubscribed:
		return "subscribed"
	case StateConsuming:
		return "consuming"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var errSessionAborted = errors.New("message processing aborted, resuming from committed offsets")

const (
	throttleConnect = "connect"
	throttlePoll    = "poll"
)

// Runtime is one consumer group member: it connects with backoff, polls the
// source and hands messages to per-partition workers.
type Runtime struct {
	connector bus.Connector
	handler   Handler
	conf      config.ConsumerConfig
	executor  *retryExecutor
	results   *resultHandler
	tracer    *messageTracer
	dedup     Deduplicator
	metrics   *consumerMetrics
	log       *zap.Logger
	throttler *logger.LogThrottler
	markReady func()
	readyOnce sync.Once

	state atomic.Int32

	mu      sync.Mutex
	handled map[bus.TopicPartition]int64
}

type runtimeDeps struct {
	connector bus.Connector
	handler   Handler
	conf      config.ConsumerConfig
	dlq       DLQHandler
	dedup     Deduplicator
	tracer    *messageTracer
	metrics   *consumerMetrics
	log       *zap.Logger
	markReady func()
}

func newRuntime(d runtimeDeps) *Runtime {
	log := d.log.With(
		zap.String("component", "consumer"),
		zap.String("group_id", d.conf.GroupID),
	)
	markReady := d.markReady
	if markReady == nil {
		markReady = func() {}
	}
	return &Runtime{
		connector: d.connector,
		handler:   d.handler,
		conf:      d.conf,
		executor:  newRetryExecutor(d.conf.MaxRetryAttempts, d.conf.InitialBackoff, d.conf.MaxBackoff, d.conf.ProcessingTimeout),
		results:   newResultHandler(d.dlq, d.dedup, d.metrics),
		tracer:    d.tracer,
		dedup:     d.dedup,
		metrics:   d.metrics,
		log:       log,
		throttler: logger.NewLogThrottler(log, time.Minute),
		markReady: markReady,
		handled:   make(map[bus.TopicPartition]int64),
	}
}

// State returns the current lifecycle state.
func (r *Runtime) State() State {
	return State(r.state.Load())
}

func (r *Runtime) setState(s State) {
	if prev := State(r.state.Swap(int32(s))); prev != s {
		r.log.Debug("consumer state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

// Run consumes until ctx ends. Bus failures never end it.
func (r *Runtime) Run(ctx context.Context) error {
	defer r.setState(StateStopped)

	for {
		src, err := r.connect(ctx)
		if err != nil {
			return nil
		}

		err = r.consume(ctx, src)
		if closeErr := src.Close(); closeErr != nil {
			r.log.Warn("failed to close event source", zap.Error(closeErr))
		}
		if ctx.Err() != nil {
			return nil
		}

		r.setState(StateDisconnected)
		r.log.Warn("event source failed, reconnecting", zap.Error(err))
	}
}

// connect retries until a subscribed source is available or ctx ends.
func (r *Runtime) connect(ctx context.Context) (bus.Source, error) {
	r.setState(StateDisconnected)

	var src bus.Source
	attempt := 0
	op := func() error {
		attempt++
		s, err := r.connector.Connect(ctx)
		if err != nil {
			return err
		}
		r.setState(StateConnected)

		if err := s.Subscribe(ctx, r.conf.Topics); err != nil {
			_ = s.Close()
			r.setState(StateDisconnected)
			return err
		}
		src = s
		return nil
	}
	notify := func(err error, next time.Duration) {
		r.throttler.Warn(throttleConnect, "failed to connect to event bus, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retryIn", next),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(r.connectBackOff(), ctx), notify); err != nil {
		return nil, err
	}

	r.throttler.Reset(throttleConnect)
	r.setState(StateSubscribed)
	r.readyOnce.Do(r.markReady)
	r.log.Info("consumer subscribed",
		zap.Strings("topics", r.conf.Topics),
		zap.Int("attempts", attempt))
	return src, nil
}

func (r *Runtime) connectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.conf.InitialBackoff
	b.MaxInterval = r.conf.MaxBackoff
	b.MaxElapsedTime = 0
	return b
}

// consume runs one session. An aborted message ends the session so that the
// partition is read again from its committed offset. The poll loop never waits
// on a partition worker.
func (r *Runtime) consume(parent context.Context, src bus.Source) error {
	r.setState(StateConsuming)

	ctx, abort := context.WithCancelCause(parent)
	defer abort(nil)

	d := newDispatcher(ctx, r.conf.PartitionBuffer, src, r.log, func(ctx context.Context, msg *bus.Message) {
		if class := r.process(ctx, src, msg); class == ClassAbort && parent.Err() == nil {
			abort(errSessionAborted)
		}
	})
	defer func() {
		d.stop()
		r.log.Debug("partition workers stopped", zap.Int("partitions", d.partitions()))
	}()

	for {
		d.resumeDrained()

		msg, err := src.Poll(ctx)
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		if err != nil {
			if errors.Is(err, bus.ErrSourceBroken) || errors.Is(err, bus.ErrClosed) {
				return err
			}
			r.throttler.Warn(throttlePoll, "failed to poll event bus", zap.Error(err))
			sleep(ctx, r.conf.InitialBackoff)
			continue
		}
		if msg == nil {
			continue
		}

		d.dispatch(msg)
	}
}

// process runs one message through dedup, the retry executor and the result policy.
func (r *Runtime) process(ctx context.Context, src bus.Source, msg *bus.Message) Class {
	started := time.Now()
	ctx, span := r.tracer.startConsumerSpan(ctx, msg)
	defer span.End()

	log := r.log.With(
		zap.String("topic", msg.Topic),
		zap.Int32("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)
	ctx = logger.WithLogger(ctx, log)

	if r.seenOffset(msg) {
		r.metrics.recordRedelivered(ctx, msg)
	}

	key := DedupKey(msg)
	err := r.checkDuplicate(ctx, key)
	if err == nil {
		err = r.executor.Execute(ctx, func(ctx context.Context) error {
			return r.handler.Handle(ctx, msg)
		})
	}

	class := r.results.handle(ctx, src, msg, key, err, span)
	r.metrics.recordDuration(ctx, msg, class, time.Since(started))
	if class.Commits() {
		r.trackHandled(msg)
	}
	return class
}

// checkDuplicate treats dedup backend errors as "not seen".
func (r *Runtime) checkDuplicate(ctx context.Context, key string) error {
	seen, err := r.dedup.Seen(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn("dedup lookup failed, treating as not seen",
			zap.String("dedup_key", key), zap.Error(err))
		return nil
	}
	if seen {
		return fmt.Errorf("%w: %s", ErrDuplicateDelivery, key)
	}
	return nil
}

func (r *Runtime) seenOffset(msg *bus.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.handled[msg.TopicPartition()]
	return ok && msg.Offset <= last
}

func (r *Runtime) trackHandled(msg *bus.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tp := msg.TopicPartition()
	if last, ok := r.handled[tp]; !ok || msg.Offset > last {
		r.handled[tp] = msg.Offset
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
