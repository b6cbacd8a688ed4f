package consumer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"go.uber.org/zap"
)

// flowControl is the part of bus.Source the dispatcher drives.
type flowControl interface {
	Pause(partitions []bus.TopicPartition) error
	Resume(partitions []bus.TopicPartition) error
}

// partitionQueue is the backlog of one partition worker.
type partitionQueue struct {
	mu      sync.Mutex
	pending []*bus.Message
	wake    chan struct{}
}

func (q *partitionQueue) push(msg *bus.Message) int {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	n := len(q.pending)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return n
}

func (q *partitionQueue) pop() (*bus.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	msg := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return msg, true
}

func (q *partitionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// dispatcher fans messages out to one sequential worker per partition.
// dispatch never blocks: a partition whose backlog reaches the buffer size is
// paused on the source and resumed once the backlog halves, so a slow or hung
// handler holds back only its own partition.
//
// dispatch, resumeDrained and stop are called from the poll goroutine only.
type dispatcher struct {
	ctx      context.Context
	process  func(ctx context.Context, msg *bus.Message)
	flow     flowControl
	log      *zap.Logger
	buffer   int
	queues   map[bus.TopicPartition]*partitionQueue
	paused   map[bus.TopicPartition]bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopping atomic.Bool
}

func newDispatcher(ctx context.Context, buffer int, flow flowControl, log *zap.Logger, process func(ctx context.Context, msg *bus.Message)) *dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &dispatcher{
		ctx:     ctx,
		process: process,
		flow:    flow,
		log:     log,
		buffer:  buffer,
		queues:  make(map[bus.TopicPartition]*partitionQueue),
		paused:  make(map[bus.TopicPartition]bool),
		done:    make(chan struct{}),
	}
}

// dispatch queues msg on its partition worker.
func (d *dispatcher) dispatch(msg *bus.Message) {
	tp := msg.TopicPartition()
	q, ok := d.queues[tp]
	if !ok {
		q = &partitionQueue{wake: make(chan struct{}, 1)}
		d.queues[tp] = q
		d.wg.Add(1)
		go d.run(q)
	}

	// Re-pausing is idempotent. It also covers a pause the source dropped on rebalance.
	if q.push(msg) >= d.buffer {
		d.pause(tp)
	}
}

// resumeDrained resumes paused partitions whose backlog fell to the low watermark.
func (d *dispatcher) resumeDrained() {
	low := d.buffer / 2
	for tp := range d.paused {
		if d.queues[tp].len() > low {
			continue
		}
		if err := d.flow.Resume([]bus.TopicPartition{tp}); err != nil {
			d.log.Warn("failed to resume partition", zap.String("topic", tp.Topic), zap.Int32("partition", tp.Partition), zap.Error(err))
			continue
		}
		delete(d.paused, tp)
	}
}

func (d *dispatcher) pause(tp bus.TopicPartition) {
	if err := d.flow.Pause([]bus.TopicPartition{tp}); err != nil {
		d.log.Warn("failed to pause partition", zap.String("topic", tp.Topic), zap.Int32("partition", tp.Partition), zap.Error(err))
		return
	}
	if !d.paused[tp] {
		d.log.Debug("partition paused, worker backlog full", zap.String("topic", tp.Topic), zap.Int32("partition", tp.Partition))
	}
	d.paused[tp] = true
}

func (d *dispatcher) run(q *partitionQueue) {
	defer d.wg.Done()
	for {
		msg, ok := q.pop()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-d.done:
				return
			}
		}
		// Queued messages are left uncommitted once stopping; the group redelivers them.
		if d.stopping.Load() || d.ctx.Err() != nil {
			return
		}
		d.process(d.ctx, msg)
	}
}

// stop lets each worker finish its in-flight message and waits for all of them.
func (d *dispatcher) stop() {
	d.stopping.Store(true)
	close(d.done)
	d.wg.Wait()
}

func (d *dispatcher) partitions() int {
	return len(d.queues)
}
