// Package memory is an in-process partitioned log implementing the bus contract.
// It backs the standalone environment and the pipeline tests.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"go.uber.org/zap"
)

const (
	defaultPartitions   = 3
	defaultPollInterval = 100 * time.Millisecond
)

var errBrokerDown = errors.New("memory broker is down")

// Option configures a Broker.
type Option func(*Broker)

// WithPartitions sets the partition count used for every new topic.
func WithPartitions(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.partitions = n
		}
	}
}

// WithPollInterval sets how long Poll waits before reporting an idle poll.
func WithPollInterval(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// Broker holds every topic log, group membership and committed offsets.
type Broker struct {
	mu           sync.Mutex
	partitions   int
	pollInterval time.Duration
	topics       map[string][][]bus.Message
	roundRobin   map[string]int
	groups       map[string]*group
	available    bool
	wake         chan struct{}
	log          *zap.Logger
}

type group struct {
	members    []*Source
	generation int
	committed  map[bus.TopicPartition]int64
}

// NewBroker creates an available broker.
func NewBroker(log *zap.Logger, opts ...Option) *Broker {
	b := &Broker{
		partitions:   defaultPartitions,
		pollInterval: defaultPollInterval,
		topics:       make(map[string][][]bus.Message),
		roundRobin:   make(map[string]int),
		groups:       make(map[string]*group),
		available:    true,
		wake:         make(chan struct{}),
		log:          log.With(zap.String("component", "memory-broker")),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetAvailable simulates a broker outage (false) and its recovery (true).
func (b *Broker) SetAvailable(up bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.available == up {
		return
	}
	b.available = up
	b.log.Info("availability changed", zap.Bool("available", up))
	b.notifyLocked()
}

// Publish appends rec to the partition chosen by its key.
func (b *Broker) Publish(ctx context.Context, rec bus.Record) (bus.Position, error) {
	if err := ctx.Err(); err != nil {
		return bus.Position{}, err
	}
	if rec.Topic == "" {
		return bus.Position{}, fmt.Errorf("topic is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.available {
		return bus.Position{}, bus.Unavailable(errBrokerDown)
	}

	b.ensureTopicLocked(rec.Topic)
	partition := b.partitionForLocked(rec.Topic, rec.Key)
	log := b.topics[rec.Topic][partition]

	msg := bus.Message{
		Topic:     rec.Topic,
		Partition: partition,
		Offset:    int64(len(log)),
		Key:       bytes.Clone(rec.Key),
		Value:     bytes.Clone(rec.Value),
		Headers:   bus.CloneHeaders(rec.Headers),
		Timestamp: time.Now().UTC(),
	}
	b.topics[rec.Topic][partition] = append(log, msg)
	b.notifyLocked()

	return bus.Position{Topic: msg.Topic, Partition: msg.Partition, Offset: msg.Offset}, nil
}

// Close is a no-op; the broker outlives its publishers.
func (b *Broker) Close() {}

// Connector returns a bus.Connector creating members of group.
func (b *Broker) Connector(groupID string, fromBeginning bool) bus.Connector {
	return bus.ConnectorFunc(func(ctx context.Context) (bus.Source, error) {
		return b.NewSource(ctx, groupID, fromBeginning)
	})
}

// NewSource creates a group member. It joins the group on Subscribe.
func (b *Broker) NewSource(ctx context.Context, groupID string, fromBeginning bool) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, fmt.Errorf("group id is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.available {
		return nil, bus.Unavailable(errBrokerDown)
	}

	return &Source{
		broker:        b,
		groupID:       groupID,
		fromBeginning: fromBeginning,
		generation:    -1,
	}, nil
}

// Committed returns the next offset the group will read from the partition.
func (b *Broker) Committed(groupID, topic string, partition int32) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[groupID]
	if !ok {
		return 0, false
	}
	off, ok := g.committed[bus.TopicPartition{Topic: topic, Partition: partition}]
	return off, ok
}

// Messages returns a copy of one partition log.
func (b *Broker) Messages(topic string, partition int32) []bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts, ok := b.topics[topic]
	if !ok || int(partition) >= len(parts) {
		return nil
	}
	return append([]bus.Message(nil), parts[partition]...)
}

// Partitions is the partition count of new topics.
func (b *Broker) Partitions() int {
	return b.partitions
}

func (b *Broker) ensureTopicLocked(topic string) {
	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make([][]bus.Message, b.partitions)
	}
}

func (b *Broker) partitionForLocked(topic string, key []byte) int32 {
	n := len(b.topics[topic])
	if len(key) == 0 {
		p := b.roundRobin[topic] % n
		b.roundRobin[topic]++
		return int32(p)
	}
	return PartitionForKey(key, n)
}

// PartitionForKey hashes key with FNV-1a onto n partitions.
func PartitionForKey(key []byte, n int) int32 {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return int32(h.Sum32() % uint32(n))
}

func (b *Broker) groupLocked(id string) *group {
	g, ok := b.groups[id]
	if !ok {
		g = &group{committed: make(map[bus.TopicPartition]int64)}
		b.groups[id] = g
	}
	return g
}

// notifyLocked wakes every poller waiting for new data.
func (b *Broker) notifyLocked() {
	close(b.wake)
	b.wake = make(chan struct{})
}

func (b *Broker) partitionsOfLocked(topics []string) []bus.TopicPartition {
	sorted := append([]string(nil), topics...)
	sort.Strings(sorted)

	var out []bus.TopicPartition
	for _, topic := range sorted {
		for p := range b.topics[topic] {
			out = append(out, bus.TopicPartition{Topic: topic, Partition: int32(p)})
		}
	}
	return out
}
