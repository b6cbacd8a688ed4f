package messaging

import (
	"context"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/core/health"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	kafkabus "github.com/Sokol111/student-housing/pkg/messaging/bus/kafka"
	"github.com/Sokol111/student-housing/pkg/messaging/bus/memory"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"github.com/Sokol111/student-housing/pkg/messaging/producer"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const publisherComponent = "event-publisher"

// messagingOptions holds internal configuration for the messaging module.
type messagingOptions struct {
	config    *config.Config
	busConfig *config.BusConfig
	broker    *memory.Broker
}

// MessagingOption is a functional option for configuring the messaging module.
type MessagingOption func(*messagingOptions)

// WithConfig provides static messaging configuration (useful for tests).
// When set, the "bus" and "kafka" sections are not read from viper.
func WithConfig(bus config.BusConfig, cfg config.Config) MessagingOption {
	return func(opts *messagingOptions) {
		opts.busConfig = &bus
		opts.config = &cfg
	}
}

// WithBroker shares an existing in-memory broker, so several applications in
// one process talk over the same log.
func WithBroker(b *memory.Broker) MessagingOption {
	return func(opts *messagingOptions) {
		opts.broker = b
	}
}

// NewMessagingModule provides the bus publisher, the in-memory broker and the event emitter.
// Consumers add consumer.NewConsumerModule on top.
//
//	// Production - loads config from viper
//	messaging.NewMessagingModule()
//
//	// Testing - memory bus with static config
//	messaging.NewMessagingModule(
//	    messaging.WithConfig(config.BusConfig{Driver: config.DriverMemory}, config.Config{...}),
//	)
func NewMessagingModule(opts ...MessagingOption) fx.Option {
	o := &messagingOptions{}
	for _, opt := range opts {
		opt(o)
	}

	return fx.Options(
		configModule(o),
		fx.Module("bus",
			fx.Provide(
				func(conf config.BusConfig, log *zap.Logger) *memory.Broker {
					if o.broker != nil {
						return o.broker
					}
					return memory.NewBroker(log, memory.WithPartitions(conf.Partitions))
				},
				providePublisher,
			),
		),
		producer.NewProducerModule(),
	)
}

func configModule(o *messagingOptions) fx.Option {
	if o.config != nil {
		return fx.Supply(*o.busConfig, *o.config)
	}
	return config.NewMessagingConfigModule()
}

type publisherParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Bus       config.BusConfig
	Config    config.Config
	Broker    *memory.Broker
	Log       *zap.Logger
	Readiness health.ComponentManager
}

func providePublisher(p publisherParams) (bus.Publisher, error) {
	markReady := p.Readiness.AddComponent(publisherComponent)

	if p.Bus.Driver == config.DriverMemory {
		p.Log.Info("using in-memory event bus", zap.Int("partitions", p.Broker.Partitions()))
		markReady()
		return p.Broker, nil
	}

	pub, err := kafkabus.NewPublisher(p.Config, p.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	probeCtx, cancelProbe := context.WithCancel(context.Background())
	probeDone := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			timeout := p.Config.Producer.ReadinessTimeout
			if timeout <= 0 {
				close(probeDone)
				markReady()
				return nil
			}
			// Emits are queued while the brokers are unreachable, so startup never waits on them.
			go func() {
				defer close(probeDone)
				defer markReady()
				ctx, cancel := context.WithTimeout(probeCtx, timeout)
				defer cancel()
				if err := pub.WaitForBrokers(ctx); err != nil {
					p.Log.Warn("kafka brokers not reachable yet, continuing", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancelProbe()
			<-probeDone
			pub.Close()
			return nil
		},
	})
	return pub, nil
}
