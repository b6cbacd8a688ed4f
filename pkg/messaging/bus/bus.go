// Package bus defines the transport contract shared by producers and consumer groups.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBusUnavailable is returned when the broker cannot be reached.
	ErrBusUnavailable = errors.New("event bus unavailable")
	// ErrSourceBroken marks a source that must be closed and reconnected.
	ErrSourceBroken = errors.New("event source is no longer usable")
	// ErrClosed is returned by operations on a closed publisher or source.
	ErrClosed = errors.New("event bus client closed")
)

// Record is what a producer publishes.
type Record struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Message is what a consumer receives. Partition, Offset and Timestamp are
// assigned by the bus.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// TopicPartition identifies the partition a message belongs to.
func (m *Message) TopicPartition() TopicPartition {
	return TopicPartition{Topic: m.Topic, Partition: m.Partition}
}

// String renders "topic[partition | offset]".
func (m *Message) String() string {
	return fmt.Sprintf("%s[%d | %d]", m.Topic, m.Partition, m.Offset)
}

// Header returns the header value or "".
func (m *Message) Header(key string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[key]
}

// TopicPartition is a (topic, partition) pair.
type TopicPartition struct {
	Topic     string
	Partition int32
}

// Position is the location of a published record.
type Position struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Publisher publishes records and waits for the delivery report.
type Publisher interface {
	Publish(ctx context.Context, rec Record) (Position, error)
	Close()
}

// Source is one consumer group member. Group and start position are fixed at construction.
type Source interface {
	Subscribe(ctx context.Context, topics []string) error
	// Poll returns (nil, nil) when nothing arrived within the poll interval.
	Poll(ctx context.Context) (*Message, error)
	// Commit marks everything up to and including msg as processed.
	Commit(ctx context.Context, msg *Message) error
	// Pause stops fetching the partitions until Resume. Messages already
	// fetched may still be returned by Poll.
	Pause(partitions []TopicPartition) error
	Resume(partitions []TopicPartition) error
	Close() error
}

// Connector opens a new Source. It fails with ErrBusUnavailable when the broker cannot be reached.
type Connector interface {
	Connect(ctx context.Context) (Source, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Source, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Source, error) {
	return f(ctx)
}

// Unavailable wraps err with ErrBusUnavailable.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrBusUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBusUnavailable, err)
}

// CloneHeaders returns a copy of h that is safe to modify.
func CloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
