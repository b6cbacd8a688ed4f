package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/consumer"
	"go.uber.org/zap"
)

// Result is what routing one message produced.
type Result struct {
	Kind       string
	Dispatches []Dispatch
	Ignored    bool
}

// Router decodes envelopes and sends each event kind to its notifier.
type Router struct {
	notifier *Notifier
}

var _ consumer.Handler = (*Router)(nil)

func NewRouter(notifier *Notifier) *Router {
	return &Router{notifier: notifier}
}

// Route handles one message. Decode failures wrap consumer.ErrDecode and
// notifier failures wrap consumer.ErrHandler.
func (r *Router) Route(ctx context.Context, msg *bus.Message) (Result, error) {
	ev, err := events.Decode(msg.Value)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", consumer.ErrDecode, msg, err)
	}

	switch e := ev.(type) {
	case events.BookingCreated:
		d, err := r.notifier.NotifyBookingCreated(ctx, e.Booking.UserID, e.Booking.ListingID)
		if err != nil {
			return Result{Kind: e.Kind()}, err
		}
		return Result{Kind: e.Kind(), Dispatches: []Dispatch{d}}, nil

	case events.UserRegistered:
		recipient := e.User.Phone
		if e.User.VerificationMethod == events.VerificationEmail {
			recipient = e.User.Email
		}
		d, err := r.notifier.NotifyVerification(ctx, e.User.VerificationMethod, recipient, e.User.VerificationCode)
		if err != nil {
			return Result{Kind: e.Kind()}, err
		}
		return Result{Kind: e.Kind(), Dispatches: []Dispatch{d}}, nil

	case events.Unknown:
		return Result{Kind: e.Tag, Ignored: true}, nil

	default:
		return Result{}, fmt.Errorf("%w: %s: unhandled event type %T", consumer.ErrDecode, msg, ev)
	}
}

// Handle adapts Route to the consumer runtime and logs the outcome.
func (r *Router) Handle(ctx context.Context, msg *bus.Message) error {
	log := logger.FromContext(ctx).With(zap.String("message", fmt.Sprintf("%s / %s", msg, msg.Timestamp.Format(time.RFC3339Nano))))
	ctx = logger.WithLogger(ctx, log)

	res, err := r.Route(ctx, msg)
	if err != nil {
		return err
	}
	if res.Ignored {
		log.Info("ignoring unknown event", zap.String("kind", res.Kind))
		return nil
	}
	log.Info("event routed", zap.String("kind", res.Kind), zap.Any("dispatches", res.Dispatches))
	return nil
}
