package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/bus/memory"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	testGroup = "notification-group"
	testTopic = "booking-events"
	waitFor   = 5 * time.Second
	tick      = 5 * time.Millisecond
)

func testConsumerConfig() config.ConsumerConfig {
	return config.ConsumerConfig{
		GroupID:           testGroup,
		AutoOffsetReset:   "earliest",
		Topics:            []string{testTopic, "auth-events"},
		MaxRetryAttempts:  3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		ProcessingTimeout: time.Second,
		PartitionBuffer:   10,
	}
}

func newTestBroker(partitions int) *memory.Broker {
	return memory.NewBroker(zap.NewNop(),
		memory.WithPartitions(partitions),
		memory.WithPollInterval(10*time.Millisecond))
}

func newTestRuntime(t *testing.T, broker *memory.Broker, handler Handler, modify ...func(*runtimeDeps)) *Runtime {
	t.Helper()
	d := runtimeDeps{
		connector: broker.Connector(testGroup, true),
		handler:   handler,
		conf:      testConsumerConfig(),
		dlq:       noopDLQHandler{},
		dedup:     NewMemoryDeduplicator(time.Hour),
		tracer:    newMessageTracer(tracenoop.NewTracerProvider(), "memory"),
		metrics:   newTestMetrics(t),
		log:       zap.NewNop(),
	}
	for _, m := range modify {
		m(&d)
	}
	return newRuntime(d)
}

// start runs r in the background; the returned func stops it and waits.
func start(t *testing.T, r *Runtime) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(waitFor):
				t.Error("runtime did not stop")
			}
		})
	}
	t.Cleanup(stop)
	return stop
}

func publish(t *testing.T, broker *memory.Broker, key, eventID string, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	headers := map[string]string{}
	if eventID != "" {
		headers[bus.HeaderEventID] = eventID
	}
	_, err = broker.Publish(context.Background(), bus.Record{
		Topic:   testTopic,
		Key:     []byte(key),
		Value:   raw,
		Headers: headers,
	})
	require.NoError(t, err)
}

// allCommitted reports whether the group committed every message of topic.
func allCommitted(broker *memory.Broker, topic string) bool {
	for p := 0; p < broker.Partitions(); p++ {
		n := len(broker.Messages(topic, int32(p)))
		if n == 0 {
			continue
		}
		off, ok := broker.Committed(testGroup, topic, int32(p))
		if !ok || off != int64(n) {
			return false
		}
	}
	return true
}

type payload struct {
	EventID string `json:"eventId"`
	Seq     int    `json:"seq"`
	Body    string `json:"body,omitempty"`
}

type recorder struct {
	mu   sync.Mutex
	msgs []*bus.Message
}

func (r *recorder) Handle(_ context.Context, msg *bus.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) payloads(t *testing.T) []payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]payload, 0, len(r.msgs))
	for _, m := range r.msgs {
		var p payload
		require.NoError(t, json.Unmarshal(m.Value, &p))
		out = append(out, p)
	}
	return out
}

func TestRuntime_PreservesOrderPerPartition(t *testing.T) {
	broker := newTestBroker(3)
	rec := &recorder{}
	r := newTestRuntime(t, broker, rec)
	start(t, r)

	const total = 60
	keys := []string{"booking-a", "booking-b", "booking-c", "booking-d", "booking-e"}
	for i := 0; i < total; i++ {
		publish(t, broker, keys[i%len(keys)], fmt.Sprintf("evt-%d", i), payload{Seq: i})
	}

	require.Eventually(t, func() bool { return rec.count() == total && allCommitted(broker, testTopic) }, waitFor, tick)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	lastOffset := map[bus.TopicPartition]int64{}
	lastSeq := map[string]int{}
	for _, m := range rec.msgs {
		tp := m.TopicPartition()
		if prev, ok := lastOffset[tp]; ok {
			assert.Greater(t, m.Offset, prev, "offsets must increase within %s", m)
		}
		lastOffset[tp] = m.Offset

		var p payload
		require.NoError(t, json.Unmarshal(m.Value, &p))
		if prev, ok := lastSeq[string(m.Key)]; ok {
			assert.Greater(t, p.Seq, prev, "events of one key must stay ordered")
		}
		lastSeq[string(m.Key)] = p.Seq
	}
	assert.Equal(t, StateConsuming, r.State())
}

func TestRuntime_SkipsAndCommitsFailures(t *testing.T) {
	broker := newTestBroker(1)
	dlq := &syncDLQ{}
	var attempts atomic.Int32
	rec := &recorder{}

	handler := HandlerFunc(func(ctx context.Context, msg *bus.Message) error {
		var p payload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if p.Body == "fail" {
			attempts.Add(1)
			return fmt.Errorf("smtp unavailable")
		}
		return rec.Handle(ctx, msg)
	})
	r := newTestRuntime(t, broker, handler, func(d *runtimeDeps) { d.dlq = dlq })
	start(t, r)

	publish(t, broker, "k", "evt-1", payload{Seq: 1})
	_, err := broker.Publish(context.Background(), bus.Record{Topic: testTopic, Key: []byte("k"), Value: []byte("{not json")})
	require.NoError(t, err)
	publish(t, broker, "k", "evt-3", payload{Seq: 3, Body: "fail"})
	publish(t, broker, "k", "evt-4", payload{Seq: 4})

	require.Eventually(t, func() bool { return allCommitted(broker, testTopic) }, waitFor, tick)

	got := rec.payloads(t)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Seq)
	assert.Equal(t, 4, got[1].Seq)
	assert.Equal(t, int32(3), attempts.Load(), "handler errors are retried up to the attempt limit")
	assert.Equal(t, 2, dlq.count(), "decode and handler failures are dead-lettered")
}

func TestRuntime_SkipsDuplicateDeliveries(t *testing.T) {
	broker := newTestBroker(2)
	rec := &recorder{}
	start(t, newTestRuntime(t, broker, rec))

	publish(t, broker, "user-1", "evt-1", payload{Seq: 1})
	publish(t, broker, "user-1", "evt-1", payload{Seq: 1})
	publish(t, broker, "user-2", "", payload{EventID: "evt-2", Seq: 2})
	publish(t, broker, "user-2", "", payload{EventID: "evt-2", Seq: 2})

	require.Eventually(t, func() bool { return allCommitted(broker, testTopic) }, waitFor, tick)
	assert.Equal(t, 2, rec.count())
}

func TestRuntime_ResumesFromCommittedOffsets(t *testing.T) {
	broker := newTestBroker(1)

	first := &recorder{}
	stop := start(t, newTestRuntime(t, broker, first))
	publish(t, broker, "k", "evt-1", payload{Seq: 1})
	publish(t, broker, "k", "evt-2", payload{Seq: 2})
	require.Eventually(t, func() bool { return allCommitted(broker, testTopic) }, waitFor, tick)
	stop()

	publish(t, broker, "k", "evt-3", payload{Seq: 3})

	second := &recorder{}
	start(t, newTestRuntime(t, broker, second))
	require.Eventually(t, func() bool { return allCommitted(broker, testTopic) }, waitFor, tick)

	got := second.payloads(t)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Seq)
}

func TestRuntime_RedeliversAbortedMessage(t *testing.T) {
	broker := newTestBroker(1)
	rec := &recorder{}
	var failures atomic.Int32

	handler := HandlerFunc(func(ctx context.Context, msg *bus.Message) error {
		var p payload
		_ = json.Unmarshal(msg.Value, &p)
		if p.Seq == 2 && failures.Add(1) <= 3 {
			return bus.Unavailable(fmt.Errorf("downstream bus down"))
		}
		return rec.Handle(ctx, msg)
	})
	start(t, newTestRuntime(t, broker, handler))

	for i := 1; i <= 3; i++ {
		publish(t, broker, "k", fmt.Sprintf("evt-%d", i), payload{Seq: i})
	}

	require.Eventually(t, func() bool { return rec.count() == 3 && allCommitted(broker, testTopic) }, waitFor, tick)

	got := rec.payloads(t)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Seq, got[1].Seq, got[2].Seq})
}

// keyFor returns a key the broker routes to partition.
func keyFor(t *testing.T, partition int32, partitions int) string {
	t.Helper()
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("booking-%d", i)
		if memory.PartitionForKey([]byte(key), partitions) == partition {
			return key
		}
	}
	t.Fatalf("no key maps to partition %d", partition)
	return ""
}

func TestRuntime_HungPartitionDoesNotStallOthers(t *testing.T) {
	broker := newTestBroker(2)
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }

	var hungHandled atomic.Int32
	healthy := &recorder{}
	handler := HandlerFunc(func(ctx context.Context, msg *bus.Message) error {
		if msg.Partition == 0 {
			// Ignores ctx on purpose, like a stuck SMTP call.
			<-release
			hungHandled.Add(1)
			return nil
		}
		return healthy.Handle(ctx, msg)
	})
	r := newTestRuntime(t, broker, handler, func(d *runtimeDeps) {
		d.conf.PartitionBuffer = 1
		d.conf.ProcessingTimeout = time.Minute
	})
	start(t, r)
	t.Cleanup(unblock)

	hungKey, healthyKey := keyFor(t, 0, 2), keyFor(t, 1, 2)
	for i := 0; i < 5; i++ {
		publish(t, broker, hungKey, fmt.Sprintf("evt-hung-%d", i), payload{Seq: i})
	}
	publish(t, broker, healthyKey, "evt-healthy-1", payload{Seq: 1})

	require.Eventually(t, func() bool { return healthy.count() == 1 }, waitFor, tick,
		"partition 1 must progress while partition 0 is stuck")
	off, ok := broker.Committed(testGroup, testTopic, 1)
	require.True(t, ok)
	assert.Equal(t, int64(1), off)
	_, ok = broker.Committed(testGroup, testTopic, 0)
	assert.False(t, ok, "nothing on the stuck partition is committed")

	t.Run("stuck partition catches up once released", func(t *testing.T) {
		publish(t, broker, healthyKey, "evt-healthy-2", payload{Seq: 2})
		require.Eventually(t, func() bool { return healthy.count() == 2 }, waitFor, tick)

		unblock()
		require.Eventually(t, func() bool { return allCommitted(broker, testTopic) }, waitFor, tick)
		assert.Equal(t, int32(5), hungHandled.Load())
	})
}

func TestRuntime_WaitsForBroker(t *testing.T) {
	broker := newTestBroker(1)
	broker.SetAvailable(false)

	var ready atomic.Int32
	rec := &recorder{}
	r := newTestRuntime(t, broker, rec, func(d *runtimeDeps) {
		d.markReady = func() { ready.Add(1) }
	})
	start(t, r)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateDisconnected, r.State())
	assert.Zero(t, ready.Load())

	broker.SetAvailable(true)
	publish(t, broker, "k", "evt-1", payload{Seq: 1})
	require.Eventually(t, func() bool { return rec.count() == 1 }, waitFor, tick)
	assert.Equal(t, int32(1), ready.Load())

	t.Run("survives an outage while consuming", func(t *testing.T) {
		broker.SetAvailable(false)
		time.Sleep(30 * time.Millisecond)
		broker.SetAvailable(true)

		publish(t, broker, "k", "evt-2", payload{Seq: 2})
		require.Eventually(t, func() bool { return rec.count() == 2 && allCommitted(broker, testTopic) }, waitFor, tick)
		assert.Equal(t, int32(1), ready.Load(), "readiness is marked once")
	})
}

func TestRuntime_StopsOnContextCancel(t *testing.T) {
	broker := newTestBroker(1)
	r := newTestRuntime(t, broker, &recorder{})
	assert.Equal(t, StateDisconnected, r.State())

	stop := start(t, r)
	require.Eventually(t, func() bool { return r.State() == StateConsuming }, waitFor, tick)

	stop()
	assert.Equal(t, StateStopped, r.State())
	assert.Equal(t, "stopped", r.State().String())
}

func TestRuntime_RecordsHandledMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := newConsumerMetrics(mp)
	require.NoError(t, err)

	broker := newTestBroker(1)
	handler := HandlerFunc(func(_ context.Context, msg *bus.Message) error {
		if !json.Valid(msg.Value) {
			return fmt.Errorf("%w: invalid json", ErrDecode)
		}
		return nil
	})
	start(t, newTestRuntime(t, broker, handler, func(d *runtimeDeps) { d.metrics = metrics }))

	publish(t, broker, "k", "evt-1", payload{Seq: 1})
	_, err = broker.Publish(context.Background(), bus.Record{Topic: testTopic, Key: []byte("k"), Value: []byte("garbage")})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return allCommitted(broker, testTopic) }, waitFor, tick)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	results := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "consumer.messages.handled" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				result, _ := dp.Attributes.Value("result")
				results[result.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"ok": 1, "decode_error": 1}, results)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "subscribed", StateSubscribed.String())
	assert.Equal(t, "consuming", StateConsuming.String())
	assert.Equal(t, "state(9)", State(9).String())
}

type syncDLQ struct {
	mu   sync.Mutex
	sent int
}

func (d *syncDLQ) SendToDLQ(context.Context, *bus.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent++
}

func (d *syncDLQ) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}
