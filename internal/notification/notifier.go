package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/messaging/consumer"
)

// ErrNoRecipient is returned when an event names nobody to notify.
var ErrNoRecipient = errors.New("notification recipient missing")

// Dispatch describes a notification that was sent.
type Dispatch struct {
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Message   string  `json:"message"`
}

// Notifier turns domain facts into notifications.
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyBookingCreated sends the booking confirmation email to the booking user.
func (n *Notifier) NotifyBookingCreated(ctx context.Context, userID, listingID string) (Dispatch, error) {
	if userID == "" {
		return Dispatch{}, consumer.Permanent(fmt.Errorf("%w: %w: booking has no user", consumer.ErrHandler, ErrNoRecipient))
	}

	d := Dispatch{
		Channel:   ChannelEmail,
		Recipient: userID,
		Message:   fmt.Sprintf("Sending Email Notification to User %s for Listing %s", userID, listingID),
	}
	return d, n.send(ctx, d, "booking confirmation")
}

// NotifyVerification sends the verification code by email for the email
// method and by SMS for any other method.
func (n *Notifier) NotifyVerification(ctx context.Context, method, recipient, code string) (Dispatch, error) {
	channel := ChannelSMS
	if method == events.VerificationEmail {
		channel = ChannelEmail
	}
	if recipient == "" {
		return Dispatch{}, consumer.Permanent(fmt.Errorf("%w: %w: no address for %s verification", consumer.ErrHandler, ErrNoRecipient, channel))
	}

	d := Dispatch{
		Channel:   channel,
		Recipient: recipient,
		Message:   fmt.Sprintf("Sending verification %s to %s, code: %s", channel, recipient, code),
	}
	return d, n.send(ctx, d, "verification code")
}

func (n *Notifier) send(ctx context.Context, d Dispatch, subject string) error {
	err := n.sender.Send(ctx, Notification{
		Channel:   d.Channel,
		Recipient: d.Recipient,
		Subject:   subject,
		Body:      d.Message,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %s via %s: %w", consumer.ErrHandler, subject, d.Channel, err)
	}
}
