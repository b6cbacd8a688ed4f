// Package kafka implements the bus contract on confluent-kafka-go.
package kafka

import (
	"time"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	"github.com/Sokol111/student-housing/pkg/messaging/config"
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// metadataProvider is implemented by both *kafka.Producer and *kafka.Consumer.
type metadataProvider interface {
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*ckafka.Metadata, error)
}

type producerClient interface {
	metadataProvider
	Produce(msg *ckafka.Message, deliveryChan chan ckafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type consumerClient interface {
	metadataProvider
	SubscribeTopics(topics []string, rebalanceCb ckafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*ckafka.Message, error)
	StoreOffsets(offsets []ckafka.TopicPartition) ([]ckafka.TopicPartition, error)
	Commit() ([]ckafka.TopicPartition, error)
	Pause(partitions []ckafka.TopicPartition) error
	Resume(partitions []ckafka.TopicPartition) error
	Close() error
}

func producerConfigMap(conf config.Config) *ckafka.ConfigMap {
	return &ckafka.ConfigMap{
		"bootstrap.servers":  conf.Brokers,
		"client.id":          conf.ClientID,
		"acks":               "all",
		"enable.idempotence": true,
		"message.timeout.ms": int(conf.Producer.DeliveryTimeout.Milliseconds()),
	}
}

// consumerConfigMap stores offsets only after handling; auto-commit flushes stored offsets.
func consumerConfigMap(conf config.Config) *ckafka.ConfigMap {
	return &ckafka.ConfigMap{
		"bootstrap.servers":        conf.Brokers,
		"client.id":                conf.ClientID,
		"group.id":                 conf.Consumer.GroupID,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
		"auto.commit.interval.ms":  3000,
		"auto.offset.reset":        conf.Consumer.AutoOffsetReset,
	}
}

func toKafkaHeaders(h map[string]string) []ckafka.Header {
	if len(h) == 0 {
		return nil
	}
	out := make([]ckafka.Header, 0, len(h))
	for k, v := range h {
		out = append(out, ckafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func fromKafkaMessage(msg *ckafka.Message) *bus.Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	var topic string
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}

	return &bus.Message{
		Topic:     topic,
		Partition: msg.TopicPartition.Partition,
		Offset:    int64(msg.TopicPartition.Offset),
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Timestamp: msg.Timestamp,
	}
}
