package notification

import (
	"context"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"go.uber.org/zap"
)

// Channel is the delivery medium of a notification.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

type Notification struct {
	Channel   Channel
	Recipient string
	Subject   string
	Body      string
}

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// SimulatedSender logs the dispatch and waits a fixed latency instead of talking to a provider.
// It logs through the message-scoped logger of ctx.
type SimulatedSender struct {
	latency time.Duration
}

func NewSimulatedSender(latency time.Duration) *SimulatedSender {
	return &SimulatedSender{latency: latency}
}

func (s *SimulatedSender) Send(ctx context.Context, n Notification) error {
	log := logger.FromContext(ctx)
	log.Info(n.Body,
		zap.String("channel", string(n.Channel)),
		zap.String("recipient", n.Recipient),
		zap.String("subject", n.Subject))

	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	log.Info("notification sent", zap.String("channel", string(n.Channel)), zap.String("recipient", n.Recipient))
	return nil
}
