package consumer

import (
	"context"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/core/health"
	"github.com/Sokol111/student-housing/pkg/core/worker"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	kafkabus "github.com/Sokol111/student-housing/pkg/messaging/bus/kafka"
	"github.com/Sokol111/student-housing/pkg/messaging/bus/memory"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const readinessComponent = "event-consumer"

type moduleOptions struct {
	groupID string
	topics  []string
}

// Option sets a group default used when the "kafka.consumer" section leaves it empty.
type Option func(*moduleOptions)

func WithGroupID(id string) Option {
	return func(o *moduleOptions) {
		o.groupID = id
	}
}

func WithTopics(topics ...string) Option {
	return func(o *moduleOptions) {
		o.topics = topics
	}
}

// NewConsumerModule runs a consumer group member as a worker. The application
// must provide a Handler, the messaging config and the observability providers.
//
//	consumer.NewConsumerModule(
//	    consumer.WithGroupID("notification-group"),
//	    consumer.WithTopics("booking-events", "auth-events"),
//	)
func NewConsumerModule(opts ...Option) fx.Option {
	o := moduleOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	return fx.Module("consumer",
		fx.Supply(o),
		fx.Provide(
			newDedupConfig,
			provideGroupConfig,
			provideConnector,
			provideDeduplicator,
			provideDLQHandler,
			provideRuntime,
			worker.Register[*Runtime]("event-consumer"),
		),
	)
}

// groupConfig is the messaging config with the module's group defaults applied.
type groupConfig struct {
	config.Config
}

func provideGroupConfig(conf config.Config, o moduleOptions) (groupConfig, error) {
	if conf.Consumer.GroupID == "" {
		conf.Consumer.GroupID = o.groupID
	}
	if len(conf.Consumer.Topics) == 0 {
		conf.Consumer.Topics = o.topics
	}
	if conf.Consumer.GroupID == "" {
		return groupConfig{}, fmt.Errorf("consumer group id is required")
	}
	if len(conf.Consumer.Topics) == 0 {
		return groupConfig{}, fmt.Errorf("consumer topics are required")
	}
	return groupConfig{conf}, nil
}

func provideConnector(busConf config.BusConfig, gc groupConfig, broker *memory.Broker, log *zap.Logger) bus.Connector {
	if busConf.Driver == config.DriverMemory {
		return broker.Connector(gc.Consumer.GroupID, gc.Consumer.FromBeginning())
	}
	return kafkabus.NewConnector(gc.Config, log)
}

func provideDeduplicator(lc fx.Lifecycle, cfg DedupConfig, gc groupConfig, log *zap.Logger) Deduplicator {
	log = log.With(zap.String("component", "dedup"), zap.String("backend", string(cfg.Backend)))

	switch cfg.Backend {
	case DedupNone:
		return NewNoopDeduplicator()
	case DedupRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				// Lookups fail open, so an unreachable redis is not fatal.
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn("redis not reachable, duplicates will not be detected", zap.Error(err))
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return NewRedisDeduplicator(client, fmt.Sprintf(dedupKeyPrefixFmt, gc.Consumer.GroupID), cfg.TTL)
	default:
		return NewMemoryDeduplicator(cfg.TTL)
	}
}

type dlqParams struct {
	fx.In
	Group     groupConfig
	Bus       config.BusConfig
	Publisher bus.Publisher `optional:"true"`
	Tracer    trace.TracerProvider
}

func provideDLQHandler(p dlqParams) (DLQHandler, error) {
	if !p.Group.Consumer.DeadLetter.Enabled {
		return noopDLQHandler{}, nil
	}
	if p.Publisher == nil {
		return nil, fmt.Errorf("dead-lettering is enabled but no publisher is available")
	}
	return newDLQHandler(p.Publisher, p.Group.Consumer.DeadLetter.Topic, newMessageTracer(p.Tracer, string(p.Bus.Driver))), nil
}

type runtimeParams struct {
	fx.In
	Connector bus.Connector
	Handler   Handler
	Group     groupConfig
	Bus       config.BusConfig
	DLQ       DLQHandler
	Dedup     Deduplicator
	Tracer    trace.TracerProvider
	Meter     metric.MeterProvider
	Log       *zap.Logger
	Readiness health.ComponentManager
}

func provideRuntime(p runtimeParams) (*Runtime, error) {
	metrics, err := newConsumerMetrics(p.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer metrics: %w", err)
	}

	return newRuntime(runtimeDeps{
		connector: p.Connector,
		handler:   p.Handler,
		conf:      p.Group.Consumer,
		dlq:       p.DLQ,
		dedup:     p.Dedup,
		tracer:    newMessageTracer(p.Tracer, string(p.Bus.Driver)),
		metrics:   metrics,
		log:       p.Log,
		markReady: p.Readiness.AddComponent(readinessComponent),
	}), nil
}
