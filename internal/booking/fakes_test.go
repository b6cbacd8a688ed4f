package booking

import (
	"context"
	"sync"

	"github.com/Sokol111/student-housing/pkg/messaging/producer"
)

type memoryRepository struct {
	mu        sync.Mutex
	bookings  []*Booking
	insertErr error
}

func (r *memoryRepository) Insert(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.bookings = append(r.bookings, b)
	return nil
}

func (r *memoryRepository) FindAll(context.Context) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Booking{}, r.bookings...), nil
}

type fakeEmitter struct {
	emitFunc func(ctx context.Context, topic string, ev producer.Event) error
}

func (f *fakeEmitter) Emit(ctx context.Context, topic string, ev producer.Event) error {
	if f.emitFunc != nil {
		return f.emitFunc(ctx, topic, ev)
	}
	return nil
}
