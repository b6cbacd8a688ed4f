package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupKey(t *testing.T) {
	t.Run("prefers event id header", func(t *testing.T) {
		msg := &bus.Message{
			Topic:   "booking-events",
			Headers: map[string]string{bus.HeaderEventID: "evt-1"},
			Value:   []byte(`{"eventId":"evt-2"}`),
		}
		assert.Equal(t, "evt-1", DedupKey(msg))
	})

	t.Run("falls back to envelope event id", func(t *testing.T) {
		msg := &bus.Message{Topic: "booking-events", Value: []byte(`{"eventId":"evt-2","type":"BookingCreated"}`)}
		assert.Equal(t, "evt-2", DedupKey(msg))
	})

	t.Run("falls back to position", func(t *testing.T) {
		msg := &bus.Message{Topic: "auth-events", Partition: 2, Offset: 17, Value: []byte("not json")}
		assert.Equal(t, "auth-events/2/17", DedupKey(msg))
	})
}

func TestMemoryDeduplicator(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	d := newMemoryDeduplicator(time.Hour, clock)

	seen, err := d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.Mark(ctx, "evt-1"))
	seen, _ = d.Seen(ctx, "evt-1")
	assert.True(t, seen)

	t.Run("expired keys are not seen", func(t *testing.T) {
		now = now.Add(time.Hour)
		seen, _ := d.Seen(ctx, "evt-1")
		assert.False(t, seen)
	})

	t.Run("expired keys are swept", func(t *testing.T) {
		require.NoError(t, d.Mark(ctx, "evt-2"))
		assert.Equal(t, 1, d.size())
	})
}

func TestNoopDeduplicator(t *testing.T) {
	d := NewNoopDeduplicator()
	require.NoError(t, d.Mark(context.Background(), "evt-1"))

	seen, err := d.Seen(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisDeduplicator(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	d := NewRedisDeduplicator(client, "dedup:notification-group:", time.Hour)

	seen, err := d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.Mark(ctx, "evt-1"))
	seen, err = d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, srv.Exists("dedup:notification-group:evt-1"))
	assert.Equal(t, time.Hour, srv.TTL("dedup:notification-group:evt-1"))

	t.Run("keys expire with ttl", func(t *testing.T) {
		srv.FastForward(time.Hour)
		seen, err := d.Seen(ctx, "evt-1")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("backend errors are returned", func(t *testing.T) {
		srv.Close()
		_, err := d.Seen(ctx, "evt-1")
		assert.Error(t, err)
	})
}
