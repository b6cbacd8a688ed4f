package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
)

// Deduplicator remembers handled events so that redeliveries can be skipped.
type Deduplicator interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// DedupKey is the event id carried in the headers or the envelope, falling
// back to the message position.
func DedupKey(msg *bus.Message) string {
	if id := msg.Header(bus.HeaderEventID); id != "" {
		return id
	}
	var probe struct {
		EventID string `json:"eventId"`
	}
	if json.Unmarshal(msg.Value, &probe) == nil && probe.EventID != "" {
		return probe.EventID
	}
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

type memoryDeduplicator struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryDeduplicator keeps keys in process memory for ttl.
func NewMemoryDeduplicator(ttl time.Duration) Deduplicator {
	return newMemoryDeduplicator(ttl, time.Now)
}

func newMemoryDeduplicator(ttl time.Duration, now func() time.Time) *memoryDeduplicator {
	return &memoryDeduplicator{
		ttl:       ttl,
		entries:   make(map[string]time.Time),
		lastSweep: now(),
		now:       now,
	}
}

func (d *memoryDeduplicator) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expires, ok := d.entries[key]
	return ok && d.now().Before(expires), nil
}

func (d *memoryDeduplicator) Mark(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	d.entries[key] = now.Add(d.ttl)

	if now.Sub(d.lastSweep) >= d.ttl {
		for k, expires := range d.entries {
			if !now.Before(expires) {
				delete(d.entries, k)
			}
		}
		d.lastSweep = now
	}
	return nil
}

func (d *memoryDeduplicator) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

type noopDeduplicator struct{}

// NewNoopDeduplicator never reports a duplicate.
func NewNoopDeduplicator() Deduplicator {
	return noopDeduplicator{}
}

func (noopDeduplicator) Seen(context.Context, string) (bool, error) { return false, nil }
func (noopDeduplicator) Mark(context.Context, string) error         { return nil }
