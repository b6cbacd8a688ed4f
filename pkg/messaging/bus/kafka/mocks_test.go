package kafka

import (
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type mockConsumer struct {
	metadataFunc  func(topic *string, allTopics bool, timeoutMs int) (*ckafka.Metadata, error)
	subscribeFunc func(topics []string, cb ckafka.RebalanceCb) error
	readFunc      func(timeout time.Duration) (*ckafka.Message, error)
	storeFunc     func(offsets []ckafka.TopicPartition) ([]ckafka.TopicPartition, error)
	commitFunc    func() ([]ckafka.TopicPartition, error)
	pauseFunc     func(partitions []ckafka.TopicPartition) error
	resumeFunc    func(partitions []ckafka.TopicPartition) error
	closed        bool
}

func (m *mockConsumer) GetMetadata(topic *string, allTopics bool, timeoutMs int) (*ckafka.Metadata, error) {
	if m.metadataFunc != nil {
		return m.metadataFunc(topic, allTopics, timeoutMs)
	}
	return &ckafka.Metadata{Brokers: []ckafka.BrokerMetadata{{ID: 1}}}, nil
}

func (m *mockConsumer) SubscribeTopics(topics []string, cb ckafka.RebalanceCb) error {
	if m.subscribeFunc != nil {
		return m.subscribeFunc(topics, cb)
	}
	return nil
}

func (m *mockConsumer) ReadMessage(timeout time.Duration) (*ckafka.Message, error) {
	if m.readFunc != nil {
		return m.readFunc(timeout)
	}
	return nil, ckafka.NewError(ckafka.ErrTimedOut, "timeout", false)
}

func (m *mockConsumer) StoreOffsets(offsets []ckafka.TopicPartition) ([]ckafka.TopicPartition, error) {
	if m.storeFunc != nil {
		return m.storeFunc(offsets)
	}
	return offsets, nil
}

func (m *mockConsumer) Commit() ([]ckafka.TopicPartition, error) {
	if m.commitFunc != nil {
		return m.commitFunc()
	}
	return nil, nil
}

func (m *mockConsumer) Pause(partitions []ckafka.TopicPartition) error {
	if m.pauseFunc != nil {
		return m.pauseFunc(partitions)
	}
	return nil
}

func (m *mockConsumer) Resume(partitions []ckafka.TopicPartition) error {
	if m.resumeFunc != nil {
		return m.resumeFunc(partitions)
	}
	return nil
}

func (m *mockConsumer) Close() error {
	m.closed = true
	return nil
}

type mockProducer struct {
	metadataFunc func(topic *string, allTopics bool, timeoutMs int) (*ckafka.Metadata, error)
	produceFunc  func(msg *ckafka.Message, deliveryChan chan ckafka.Event) error
	flushed      bool
	closed       bool
}

func (m *mockProducer) GetMetadata(topic *string, allTopics bool, timeoutMs int) (*ckafka.Metadata, error) {
	if m.metadataFunc != nil {
		return m.metadataFunc(topic, allTopics, timeoutMs)
	}
	return &ckafka.Metadata{Brokers: []ckafka.BrokerMetadata{{ID: 1}}}, nil
}

func (m *mockProducer) Produce(msg *ckafka.Message, deliveryChan chan ckafka.Event) error {
	return m.produceFunc(msg, deliveryChan)
}

func (m *mockProducer) Flush(int) int {
	m.flushed = true
	return 0
}

func (m *mockProducer) Close() {
	m.closed = true
}
