package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var errNotSubscribed = errors.New("source is not subscribed")

// Source is one member of a consumer group on a Broker.
type Source struct {
	broker        *Broker
	groupID       string
	fromBeginning bool
	topics        []string
	generation    int
	assigned      []bus.TopicPartition
	next          map[bus.TopicPartition]int64
	paused        map[bus.TopicPartition]bool
	cursor        int
	joined        bool
	closed        bool
}

var _ bus.Source = (*Source)(nil)

// Subscribe joins the group. Partitions are reassigned among all live members.
func (s *Source) Subscribe(ctx context.Context, topics []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(topics) == 0 {
		return errors.New("at least one topic is required")
	}

	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return bus.ErrClosed
	}
	if !b.available {
		return bus.Unavailable(errBrokerDown)
	}

	for _, topic := range topics {
		b.ensureTopicLocked(topic)
	}
	s.topics = append([]string(nil), topics...)

	g := b.groupLocked(s.groupID)
	if !s.joined {
		g.members = append(g.members, s)
		s.joined = true
	}
	g.generation++
	b.notifyLocked()

	b.log.Debug("member joined group",
		zap.String("group_id", s.groupID),
		zap.Strings("topics", topics),
		zap.Int("members", len(g.members)),
	)
	return nil
}

// Poll returns the next message of an assigned partition, visiting partitions round-robin.
func (s *Source) Poll(ctx context.Context) (*bus.Message, error) {
	b := s.broker
	timer := time.NewTimer(b.pollInterval)
	defer timer.Stop()

	for {
		b.mu.Lock()
		if s.closed {
			b.mu.Unlock()
			return nil, bus.ErrClosed
		}
		if !s.joined {
			b.mu.Unlock()
			return nil, errNotSubscribed
		}
		if !b.available {
			b.mu.Unlock()
			return nil, bus.Unavailable(errBrokerDown)
		}

		s.syncAssignmentLocked()
		if msg := s.nextLocked(); msg != nil {
			b.mu.Unlock()
			return msg, nil
		}
		wake := b.wake
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-wake:
		}
	}
}

// Commit advances the group offset of the message partition. Offsets never move backwards.
func (s *Source) Commit(ctx context.Context, msg *bus.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return bus.ErrClosed
	}
	if !b.available {
		return bus.Unavailable(errBrokerDown)
	}

	g := b.groupLocked(s.groupID)
	tp := msg.TopicPartition()
	if next := msg.Offset + 1; next > g.committed[tp] {
		g.committed[tp] = next
	}
	return nil
}

// Pause keeps Poll from returning messages of the partitions. It survives reassignment.
func (s *Source) Pause(partitions []bus.TopicPartition) error {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return bus.ErrClosed
	}
	if s.paused == nil {
		s.paused = make(map[bus.TopicPartition]bool, len(partitions))
	}
	for _, tp := range partitions {
		s.paused[tp] = true
	}
	return nil
}

// Resume undoes Pause and wakes a waiting Poll.
func (s *Source) Resume(partitions []bus.TopicPartition) error {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return bus.ErrClosed
	}
	for _, tp := range partitions {
		delete(s.paused, tp)
	}
	b.notifyLocked()
	return nil
}

// Close leaves the group; remaining members get the partitions on their next poll.
func (s *Source) Close() error {
	b := s.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if !s.joined {
		return nil
	}

	g := b.groupLocked(s.groupID)
	g.members = lo.Without(g.members, s)
	g.generation++
	b.notifyLocked()
	return nil
}

// Assigned returns the partitions owned after the last poll.
func (s *Source) Assigned() []bus.TopicPartition {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	return slices.Clone(s.assigned)
}

func (s *Source) syncAssignmentLocked() {
	b := s.broker
	g := b.groupLocked(s.groupID)
	if s.generation == g.generation {
		return
	}
	s.generation = g.generation

	idx := slices.Index(g.members, s)
	n := len(g.members)
	s.assigned = lo.Filter(b.partitionsOfLocked(s.topics), func(_ bus.TopicPartition, i int) bool {
		return i%n == idx
	})

	// Resume from committed offsets; uncommitted in-flight messages are redelivered.
	s.next = make(map[bus.TopicPartition]int64, len(s.assigned))
	for _, tp := range s.assigned {
		switch off, ok := g.committed[tp]; {
		case ok:
			s.next[tp] = off
		case s.fromBeginning:
			s.next[tp] = 0
		default:
			s.next[tp] = int64(len(b.topics[tp.Topic][tp.Partition]))
		}
	}
	s.cursor = 0

	b.log.Debug("partitions assigned",
		zap.String("group_id", s.groupID),
		zap.Int("generation", g.generation),
		zap.Int("count", len(s.assigned)),
	)
}

func (s *Source) nextLocked() *bus.Message {
	n := len(s.assigned)
	for i := 0; i < n; i++ {
		tp := s.assigned[(s.cursor+i)%n]
		if s.paused[tp] {
			continue
		}
		log := s.broker.topics[tp.Topic][tp.Partition]
		off := s.next[tp]
		if off >= int64(len(log)) {
			continue
		}
		s.next[tp] = off + 1
		s.cursor = (s.cursor + i + 1) % n

		msg := log[off]
		msg.Headers = bus.CloneHeaders(msg.Headers)
		return &msg
	}
	return nil
}
