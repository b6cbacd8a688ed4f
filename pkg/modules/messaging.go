package modules

import (
	"github.com/Sokol111/student-housing/pkg/messaging"
	"go.uber.org/fx"
)

// NewMessagingModule provides the bus publisher and the event emitter.
// Consumers add consumer.NewConsumerModule themselves.
func NewMessagingModule() fx.Option {
	return messaging.NewMessagingModule()
}
