package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	pollTimeout    = time.Second
	temporaryDelay = 2 * time.Second
)

// Source is a consumer group member backed by a kafka.Consumer.
type Source struct {
	consumer  consumerClient
	log       *zap.Logger
	throttler *logger.LogThrottler
	topics    []string
}

var _ bus.Source = (*Source)(nil)

func newSource(c consumerClient, log *zap.Logger) *Source {
	return &Source{
		consumer:  c,
		log:       log,
		throttler: logger.NewLogThrottler(log, time.Minute),
	}
}

// Subscribe subscribes to topics and logs every assignment change.
func (s *Source) Subscribe(ctx context.Context, topics []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.topics = topics
	if err := s.consumer.SubscribeTopics(topics, s.onRebalance); err != nil {
		return fmt.Errorf("failed to subscribe to topics %v: %w", topics, wrapReaderError(err).toBusError())
	}
	s.log.Info("subscribed to topics", zap.Strings("topics", topics))
	return nil
}

// Poll reads one message. Timeouts and temporary errors yield an idle poll.
func (s *Source) Poll(ctx context.Context) (*bus.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := s.consumer.ReadMessage(pollTimeout)
	if err == nil {
		return fromKafkaMessage(msg), nil
	}

	rerr := wrapReaderError(err)
	switch {
	case rerr.isTimeout():
		return nil, nil
	case rerr.isTemporary():
		s.throttler.Warn(rerr.errorKey, rerr.description,
			zap.Strings("topics", s.topics), zap.Error(err))
		sleep(ctx, temporaryDelay)
		return nil, nil
	default:
		return nil, rerr.toBusError()
	}
}

// Commit stores the next offset of the message partition; auto-commit flushes it.
func (s *Source) Commit(ctx context.Context, msg *bus.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	topic := msg.Topic
	_, err := s.consumer.StoreOffsets([]ckafka.TopicPartition{{
		Topic:     &topic,
		Partition: msg.Partition,
		Offset:    ckafka.Offset(msg.Offset + 1),
	}})
	if err != nil {
		return fmt.Errorf("failed to store offset for %s: %w", msg, wrapReaderError(err).toBusError())
	}
	return nil
}

// Pause stops fetching the partitions. librdkafka drops the pause on rebalance.
func (s *Source) Pause(partitions []bus.TopicPartition) error {
	if err := s.consumer.Pause(toKafkaPartitions(partitions)); err != nil {
		return fmt.Errorf("failed to pause partitions: %w", wrapReaderError(err).toBusError())
	}
	s.log.Debug("partitions paused", zap.Int("count", len(partitions)))
	return nil
}

// Resume restarts fetching paused partitions.
func (s *Source) Resume(partitions []bus.TopicPartition) error {
	if err := s.consumer.Resume(toKafkaPartitions(partitions)); err != nil {
		return fmt.Errorf("failed to resume partitions: %w", wrapReaderError(err).toBusError())
	}
	s.log.Debug("partitions resumed", zap.Int("count", len(partitions)))
	return nil
}

func toKafkaPartitions(partitions []bus.TopicPartition) []ckafka.TopicPartition {
	return lo.Map(partitions, func(tp bus.TopicPartition, _ int) ckafka.TopicPartition {
		topic := tp.Topic
		return ckafka.TopicPartition{Topic: &topic, Partition: tp.Partition}
	})
}

// Close commits stored offsets synchronously and leaves the group.
func (s *Source) Close() error {
	if _, err := s.consumer.Commit(); err != nil {
		var kafkaErr ckafka.Error
		if !errors.As(err, &kafkaErr) || kafkaErr.Code() != ckafka.ErrNoOffset {
			s.log.Warn("final commit failed", zap.Error(err))
		}
	}
	s.log.Info("closing kafka consumer")
	return s.consumer.Close()
}

func (s *Source) onRebalance(_ *ckafka.Consumer, event ckafka.Event) error {
	switch e := event.(type) {
	case ckafka.AssignedPartitions:
		s.logPartitionEvent("partitions assigned", e.Partitions)
	case ckafka.RevokedPartitions:
		s.logPartitionEvent("partitions revoked", e.Partitions)
	}
	return nil
}

func (s *Source) logPartitionEvent(msg string, partitions []ckafka.TopicPartition) {
	s.log.Info(msg,
		zap.Int32s("partitions", lo.Map(partitions, func(tp ckafka.TopicPartition, _ int) int32 {
			return tp.Partition
		})),
		zap.Strings("topics", lo.Uniq(lo.FilterMap(partitions, func(tp ckafka.TopicPartition, _ int) (string, bool) {
			if tp.Topic == nil {
				return "", false
			}
			return *tp.Topic, true
		}))),
	)
}

// Connector creates sources for one consumer group.
type Connector struct {
	conf config.Config
	log  *zap.Logger
	// newConsumer is replaced in tests.
	newConsumer func(*ckafka.ConfigMap) (consumerClient, error)
}

var _ bus.Connector = (*Connector)(nil)

func NewConnector(conf config.Config, log *zap.Logger) *Connector {
	return &Connector{
		conf: conf,
		log: log.With(
			zap.String("component", "kafka-source"),
			zap.String("group_id", conf.Consumer.GroupID),
		),
		newConsumer: func(cm *ckafka.ConfigMap) (consumerClient, error) {
			return ckafka.NewConsumer(cm)
		},
	}
}

// Connect creates a consumer and verifies that a broker answers before handing it out.
func (c *Connector) Connect(ctx context.Context) (bus.Source, error) {
	consumer, err := c.newConsumer(consumerConfigMap(c.conf))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	if err := probeBrokers(ctx, consumer); err != nil {
		_ = consumer.Close()
		return nil, err
	}
	return newSource(consumer, c.log), nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
