package booking

import (
	"context"
	"strings"
	"time"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/producer"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// EventEmitter queues an event for publishing without waiting on the bus.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, event producer.Event) error
}

type CreateBookingCommand struct {
	UserID    string `json:"userId"`
	ListingID string `json:"listingId"`
	Date      string `json:"date"`
}

func (c CreateBookingCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UserID, validation.Required),
		validation.Field(&c.ListingID, validation.Required),
		validation.Field(&c.Date, validation.Length(0, 64)),
	)
}

type Service interface {
	// Create stores a pending booking and announces it. A failed announcement does not fail the call.
	Create(ctx context.Context, cmd CreateBookingCommand) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
}

type service struct {
	repo    BookingRepository
	emitter EventEmitter
	now     func() time.Time
}

func newService(repo BookingRepository, emitter EventEmitter) Service {
	return &service{repo: repo, emitter: emitter, now: time.Now}
}

func (s *service) Create(ctx context.Context, cmd CreateBookingCommand) (*Booking, error) {
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.ListingID = strings.TrimSpace(cmd.ListingID)
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	b := &Booking{
		ID:        newBookingID(),
		UserID:    cmd.UserID,
		ListingID: cmd.ListingID,
		Date:      cmd.Date,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		return nil, err
	}

	ev := events.NewBookingCreated(events.Booking{
		ID:        b.ID,
		UserID:    b.UserID,
		ListingID: b.ListingID,
		Date:      b.Date,
		Status:    b.Status,
		CreatedAt: events.Timestamp(b.CreatedAt),
	})
	if err := s.emitter.Emit(ctx, events.TopicBooking, ev); err != nil {
		logger.FromContext(ctx).Error("failed to emit event",
			zap.String("event", ev.Kind()),
			zap.String("booking_id", b.ID),
			zap.Error(err))
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]*Booking, error) {
	return s.repo.FindAll(ctx)
}
