package notification

import (
	"net/http"

	"github.com/Sokol111/student-housing/internal/events"
	"github.com/Sokol111/student-housing/pkg/messaging/consumer"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// GroupID is the consumer group of the notification service.
const GroupID = "notification-group"

// NewNotificationModule consumes booking and auth events and sends the matching notifications.
func NewNotificationModule() fx.Option {
	return fx.Options(
		consumer.NewConsumerModule(
			consumer.WithGroupID(GroupID),
			consumer.WithTopics(events.TopicBooking, events.TopicAuth),
		),
		fx.Module("notification",
			fx.Provide(
				newConfig,
				func(cfg Config) Sender { return NewSimulatedSender(cfg.SendLatency) },
				NewNotifier,
				NewRouter,
				func(r *Router) consumer.Handler { return r },
			),
			fx.Invoke(registerRoutes),
		),
	)
}

func registerRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Notification Service is running", "health": "/health"})
	})
}
