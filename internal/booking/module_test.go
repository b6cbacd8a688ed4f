package booking

import (
	"net/http"
	"testing"
	"time"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/core/health"
	"github.com/Sokol111/student-housing/pkg/core/worker"
	"github.com/Sokol111/student-housing/pkg/messaging"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/bus/memory"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func startBooking(t *testing.T, broker *memory.Broker, repo BookingRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	app := fxtest.New(t,
		fx.Supply(zap.NewNop(), engine),
		fx.Provide(
			func() trace.TracerProvider { return tracenoop.NewTracerProvider() },
			func() metric.MeterProvider { return metricnoop.NewMeterProvider() },
		),
		health.NewReadinessModule(),
		worker.NewWorkersModule(),
		messaging.NewMessagingModule(
			messaging.WithConfig(config.BusConfig{Driver: config.DriverMemory, Partitions: broker.Partitions()}, config.Config{
				Producer: config.ProducerConfig{
					QueueSize:      10,
					MaxRetries:     2,
					InitialBackoff: time.Millisecond,
					MaxBackoff:     time.Millisecond,
					DrainTimeout:   100 * time.Millisecond,
					Breaker:        config.BreakerConfig{FailureThreshold: 2, Timeout: time.Minute},
				},
			}),
			messaging.WithBroker(broker),
		),
		NewBookingModule(WithRepository(repo)),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)
	return engine
}

func bookingMessages(broker *memory.Broker) []bus.Message {
	var out []bus.Message
	for p := 0; p < broker.Partitions(); p++ {
		out = append(out, broker.Messages(events.TopicBooking, int32(p))...)
	}
	return out
}

func TestBookingModule_PublishesBookingCreated(t *testing.T) {
	broker := memory.NewBroker(zap.NewNop(), memory.WithPartitions(3))
	engine := startBooking(t, broker, &memoryRepository{})

	w := do(engine, http.MethodPost, "/bookings", `{"userId":"u1","listingId":"L1","date":"2026-06-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Eventually(t, func() bool { return len(bookingMessages(broker)) == 1 }, 5*time.Second, 5*time.Millisecond)

	msg := bookingMessages(broker)[0]
	assert.Equal(t, events.KindBookingCreated, msg.Headers[bus.HeaderEventKind])
	assert.NotEmpty(t, msg.Headers[bus.HeaderEventID])

	ev, err := events.Decode(msg.Value)
	require.NoError(t, err)
	created, ok := ev.(events.BookingCreated)
	require.True(t, ok)
	assert.Equal(t, string(msg.Key), created.Booking.ID)
	assert.Equal(t, "u1", created.Booking.UserID)
	assert.Equal(t, "L1", created.Booking.ListingID)
}

func TestBookingModule_CreateSucceedsWhileBusIsDown(t *testing.T) {
	broker := memory.NewBroker(zap.NewNop())
	broker.SetAvailable(false)
	repo := &memoryRepository{}
	engine := startBooking(t, broker, repo)

	for range 3 {
		w := do(engine, http.MethodPost, "/bookings", `{"userId":"u1","listingId":"L1"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"pending"`)
	}

	stored, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Empty(t, bookingMessages(broker))
}
