package kafka

import (
	"context"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

const flushTimeoutMs = 5000

// Publisher produces records and waits for their delivery reports.
type Publisher struct {
	producer producerClient
	log      *zap.Logger
}

var _ bus.Publisher = (*Publisher)(nil)

// NewPublisher creates the underlying producer. No broker connection is made yet.
func NewPublisher(conf config.Config, log *zap.Logger) (*Publisher, error) {
	p, err := ckafka.NewProducer(producerConfigMap(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return newPublisher(p, log), nil
}

func newPublisher(p producerClient, log *zap.Logger) *Publisher {
	return &Publisher{producer: p, log: log.With(zap.String("component", "kafka-publisher"))}
}

// Publish sends rec and blocks until the delivery report arrives or ctx ends.
func (p *Publisher) Publish(ctx context.Context, rec bus.Record) (bus.Position, error) {
	topic := rec.Topic
	deliveryChan := make(chan ckafka.Event, 1)

	err := p.producer.Produce(&ckafka.Message{
		TopicPartition: ckafka.TopicPartition{Topic: &topic, Partition: ckafka.PartitionAny},
		Key:            rec.Key,
		Value:          rec.Value,
		Headers:        toKafkaHeaders(rec.Headers),
	}, deliveryChan)
	if err != nil {
		return bus.Position{}, p.wrap(topic, err)
	}

	select {
	case <-ctx.Done():
		return bus.Position{}, ctx.Err()
	case ev := <-deliveryChan:
		msg, ok := ev.(*ckafka.Message)
		if !ok {
			return bus.Position{}, fmt.Errorf("unexpected delivery event %T for topic %s", ev, topic)
		}
		if msg.TopicPartition.Error != nil {
			return bus.Position{}, p.wrap(topic, msg.TopicPartition.Error)
		}
		return bus.Position{
			Topic:     topic,
			Partition: msg.TopicPartition.Partition,
			Offset:    int64(msg.TopicPartition.Offset),
		}, nil
	}
}

// Ping reports whether any broker answers a metadata request.
func (p *Publisher) Ping(ctx context.Context) error {
	return probeBrokers(ctx, p.producer)
}

// WaitForBrokers blocks until the brokers answer or ctx ends.
func (p *Publisher) WaitForBrokers(ctx context.Context) error {
	return WaitForBrokers(ctx, p.producer, p.log)
}

// Close flushes outstanding messages and releases the producer.
func (p *Publisher) Close() {
	if left := p.producer.Flush(flushTimeoutMs); left > 0 {
		p.log.Warn("messages left unflushed on close", zap.Int("count", left))
	}
	p.producer.Close()
}

func (p *Publisher) wrap(topic string, err error) error {
	err = fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	if isUnavailable(err) {
		return bus.Unavailable(err)
	}
	return err
}
