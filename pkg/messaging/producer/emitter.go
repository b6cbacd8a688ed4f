package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	// ErrEncode is returned when the event cannot be serialized.
	ErrEncode = errors.New("failed to encode event")
	// ErrQueueFull is returned when the emit queue has no room left.
	ErrQueueFull = errors.New("emit queue is full")
	// ErrEmitterClosed is returned once shutdown has started.
	ErrEmitterClosed = errors.New("emitter is closed")
)

// Event is anything the emitter can publish. It is encoded with encoding/json.
type Event interface {
	// Kind is the envelope tag, e.g. BOOKING_CREATED.
	Kind() string
	// Key selects the partition; events with the same key stay ordered.
	Key() string
	// ID is the event id used for consumer-side deduplication.
	ID() string
}

type pending struct {
	rec      bus.Record
	kind     string
	queuedAt time.Time
}

// Emitter publishes events in the background so that callers never wait on the bus.
type Emitter struct {
	publisher bus.Publisher
	breaker   *gobreaker.CircuitBreaker
	conf      config.ProducerConfig
	tracer    trace.Tracer
	system    string
	metrics   *emitterMetrics
	log       *zap.Logger

	queue  chan *pending
	mu     sync.RWMutex
	closed bool
}

type emitterDeps struct {
	publisher bus.Publisher
	conf      config.ProducerConfig
	tracer    trace.TracerProvider
	system    string
	metrics   *emitterMetrics
	log       *zap.Logger
}

func newEmitter(d emitterDeps) *Emitter {
	log := d.log.With(zap.String("component", "emitter"))
	return &Emitter{
		publisher: d.publisher,
		breaker:   newBreaker(d.conf.Breaker, log),
		conf:      d.conf,
		tracer:    d.tracer.Tracer("github.com/Sokol111/student-housing/pkg/messaging/producer"),
		system:    d.system,
		metrics:   d.metrics,
		log:       log,
		queue:     make(chan *pending, d.conf.QueueSize),
	}
}

func newBreaker(conf config.BreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-bus",
		MaxRequests: 1,
		Timeout:     conf.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= conf.FailureThreshold
		},
		// Only an unreachable bus trips the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !(errors.Is(err, bus.ErrBusUnavailable) || errors.Is(err, context.DeadlineExceeded))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Emit encodes event and queues it for publishing to topic. It never blocks on the bus.
func (e *Emitter) Emit(ctx context.Context, topic string, event Event) error {
	rec, err := e.record(ctx, topic, event)
	if err != nil {
		return err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEmitterClosed
	}

	select {
	case e.queue <- &pending{rec: rec, kind: event.Kind(), queuedAt: time.Now()}:
		return nil
	default:
		e.metrics.recordFailed(ctx, topic, event.Kind(), "queue_full")
		return fmt.Errorf("%w: %d events waiting", ErrQueueFull, cap(e.queue))
	}
}

// EmitSync publishes event inline with the same retry and circuit breaker policy.
func (e *Emitter) EmitSync(ctx context.Context, topic string, event Event) (bus.Position, error) {
	rec, err := e.record(ctx, topic, event)
	if err != nil {
		return bus.Position{}, err
	}
	return e.publish(ctx, &pending{rec: rec, kind: event.Kind(), queuedAt: time.Now()})
}

func (e *Emitter) record(ctx context.Context, topic string, event Event) (bus.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return bus.Record{}, fmt.Errorf("%w: %s: %w", ErrEncode, event.Kind(), err)
	}

	headers := map[string]string{bus.HeaderEventKind: event.Kind()}
	if id := event.ID(); id != "" {
		headers[bus.HeaderEventID] = id
	}
	bus.InjectTrace(ctx, headers)

	return bus.Record{
		Topic:   topic,
		Key:     []byte(event.Key()),
		Value:   value,
		Headers: headers,
	}, nil
}

// Run publishes queued events until ctx ends, then drains the queue for at
// most DrainTimeout. Events still queued after that are dropped and counted.
func (e *Emitter) Run(ctx context.Context) error {
	publishCtx, cancelPublish := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelPublish()
	stopDrain := context.AfterFunc(ctx, func() {
		time.AfterFunc(e.conf.DrainTimeout, cancelPublish)
	})
	defer stopDrain()

	for {
		select {
		case <-ctx.Done():
			e.drain(publishCtx)
			return nil
		case p := <-e.queue:
			_, _ = e.publish(publishCtx, p)
		}
	}
}

func (e *Emitter) drain(ctx context.Context) {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	remaining := len(e.queue)
	if remaining > 0 {
		e.log.Info("draining emit queue", zap.Int("events", remaining), zap.Duration("timeout", e.conf.DrainTimeout))
	}

	dropped := 0
	for {
		select {
		case p := <-e.queue:
			if ctx.Err() != nil {
				dropped++
				e.metrics.recordFailed(ctx, p.rec.Topic, p.kind, "dropped")
				continue
			}
			_, _ = e.publish(ctx, p)
		default:
			if dropped > 0 {
				e.log.Error("drain timeout exceeded, events dropped", zap.Int("dropped", dropped))
			}
			return
		}
	}
}

func (e *Emitter) publish(ctx context.Context, p *pending) (bus.Position, error) {
	ctx = bus.ExtractTrace(ctx, p.rec.Headers)
	ctx, span := e.tracer.Start(ctx, "messaging.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", e.system),
			attribute.String("messaging.destination", p.rec.Topic),
			attribute.String("messaging.message.id", p.rec.Headers[bus.HeaderEventID]),
			attribute.String("messaging.event.kind", p.kind),
		),
	)
	defer span.End()

	rec := p.rec
	rec.Headers = bus.CloneHeaders(p.rec.Headers)
	bus.InjectTrace(ctx, rec.Headers)

	log := e.log.With(
		zap.String("topic", rec.Topic),
		zap.String("kind", p.kind),
		zap.String("event_id", rec.Headers[bus.HeaderEventID]),
	)

	attempt := 0
	op := func() (bus.Position, error) {
		attempt++
		pos, err := e.attempt(ctx, rec)
		if err == nil {
			return pos, nil
		}
		if ctx.Err() != nil {
			return pos, backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pos, backoff.Permanent(bus.Unavailable(err))
		}
		return pos, err
	}
	notify := func(err error, next time.Duration) {
		log.Debug("publish failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retryIn", next),
			zap.Error(err))
	}

	pos, err := backoff.RetryNotifyWithData(op, backoff.WithContext(e.newBackOff(), ctx), notify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		e.metrics.recordFailed(ctx, rec.Topic, p.kind, failureReason(err))
		log.Error("failed to publish event",
			zap.Int("attempts", attempt),
			zap.Duration("queued", time.Since(p.queuedAt)),
			zap.Error(err))
		return bus.Position{}, err
	}

	span.SetStatus(codes.Ok, "event published")
	e.metrics.recordPublished(ctx, rec.Topic, p.kind)
	log.Debug("event published",
		zap.Int32("partition", pos.Partition),
		zap.Int64("offset", pos.Offset),
		zap.Int("attempts", attempt))
	return pos, nil
}

func (e *Emitter) attempt(ctx context.Context, rec bus.Record) (bus.Position, error) {
	if e.conf.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.conf.DeliveryTimeout)
		defer cancel()
	}

	res, err := e.breaker.Execute(func() (any, error) {
		return e.publisher.Publish(ctx, rec)
	})
	if err != nil {
		return bus.Position{}, err
	}
	return res.(bus.Position), nil
}

func (e *Emitter) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.conf.InitialBackoff
	b.MaxInterval = e.conf.MaxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(max(e.conf.MaxRetries, 0)))
}

// BreakerState reports the circuit breaker state: closed, half-open or open.
func (e *Emitter) BreakerState() string {
	return e.breaker.State().String()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, bus.ErrBusUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
