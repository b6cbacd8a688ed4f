package notification

import (
	"context"
	"testing"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSimulatedSender_Send(t *testing.T) {
	t.Run("logs the dispatch after the latency", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		ctx := logger.WithLogger(context.Background(), zap.New(core))
		sender := NewSimulatedSender(20 * time.Millisecond)

		started := time.Now()
		err := sender.Send(ctx, Notification{
			Channel:   ChannelSMS,
			Recipient: "+201000000000",
			Subject:   "verification code",
			Body:      "Sending verification SMS to +201000000000, code: 123456",
		})

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)

		entries := logs.All()
		require.Len(t, entries, 2)
		assert.Equal(t, "Sending verification SMS to +201000000000, code: 123456", entries[0].Message)
		assert.Equal(t, "SMS", entries[0].ContextMap()["channel"])
		assert.Equal(t, "notification sent", entries[1].Message)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		sender := NewSimulatedSender(time.Minute)

		err := sender.Send(ctx, Notification{Channel: ChannelEmail, Recipient: "u1"})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{SendLatency: 0}.Validate())
	assert.NoError(t, Config{SendLatency: defaultSendLatency}.Validate())
	assert.Error(t, Config{SendLatency: -time.Second}.Validate())
	assert.Error(t, Config{SendLatency: 2 * time.Minute}.Validate())
}
