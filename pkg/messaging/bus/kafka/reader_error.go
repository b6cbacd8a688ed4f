package kafka

import (
	"errors"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// kafkaErrorType represents the category of Kafka error
type kafkaErrorType int

const (
	errorTypeTimeout kafkaErrorType = iota
	errorTypeFatal
	errorTypeTopicNotFound
	errorTypeBrokerConnection
	errorTypeLeaderElection
	errorTypeRetriable
	errorTypeNonKafka
)

// readerError wraps the original error with additional classification information
type readerError struct {
	err         error
	errorType   kafkaErrorType
	errorKey    string // throttling key
	description string
}

func (e *readerError) Error() string {
	if e.description != "" {
		return fmt.Sprintf("%s: %v", e.description, e.err)
	}
	return e.err.Error()
}

func (e *readerError) Unwrap() error {
	return e.err
}

// wrapReaderError classifies a Kafka error. Returns nil if there is no error.
func wrapReaderError(err error) *readerError {
	if err == nil {
		return nil
	}

	var kafkaErr ckafka.Error
	if !errors.As(err, &kafkaErr) {
		return &readerError{
			err:         err,
			errorType:   errorTypeNonKafka,
			errorKey:    "non_kafka_error",
			description: "non-Kafka error occurred",
		}
	}

	if kafkaErr.IsTimeout() {
		return &readerError{err: err, errorType: errorTypeTimeout}
	}

	if kafkaErr.IsFatal() {
		return &readerError{
			err:         err,
			errorType:   errorTypeFatal,
			errorKey:    "fatal",
			description: "fatal kafka error - consumer instance is no longer operable",
		}
	}

	switch kafkaErr.Code() {
	case ckafka.ErrUnknownTopicOrPart, ckafka.ErrUnknownTopic:
		return &readerError{
			err:         err,
			errorType:   errorTypeTopicNotFound,
			errorKey:    "topic_not_found",
			description: "topic not available, waiting for topic creation",
		}

	case ckafka.ErrTransport, ckafka.ErrAllBrokersDown, ckafka.ErrNetworkException:
		return &readerError{
			err:         err,
			errorType:   errorTypeBrokerConnection,
			errorKey:    "broker_connection",
			description: "broker connection issue, retrying",
		}

	case ckafka.ErrLeaderNotAvailable, ckafka.ErrNotLeaderForPartition:
		return &readerError{
			err:         err,
			errorType:   errorTypeLeaderElection,
			errorKey:    "leader_election",
			description: "partition leader changing, retrying",
		}
	}

	if kafkaErr.IsRetriable() {
		return &readerError{
			err:         err,
			errorType:   errorTypeRetriable,
			errorKey:    "retriable_error",
			description: "retriable kafka error, retrying",
		}
	}

	return &readerError{
		err:         err,
		errorType:   errorTypeNonKafka,
		errorKey:    "unknown_error",
		description: "unknown kafka error",
	}
}

func (e *readerError) isFatal() bool {
	return e.errorType == errorTypeFatal
}

func (e *readerError) isTimeout() bool {
	return e.errorType == errorTypeTimeout
}

// isTemporary reports errors that clear up by themselves while the client keeps polling.
func (e *readerError) isTemporary() bool {
	switch e.errorType {
	case errorTypeTopicNotFound,
		errorTypeLeaderElection,
		errorTypeRetriable:
		return true
	default:
		return false
	}
}

// toBusError maps a classified error onto the bus taxonomy.
func (e *readerError) toBusError() error {
	switch e.errorType {
	case errorTypeFatal:
		return fmt.Errorf("%w: %w: %w", bus.ErrBusUnavailable, bus.ErrSourceBroken, e)
	case errorTypeBrokerConnection:
		return fmt.Errorf("%w: %w", bus.ErrBusUnavailable, e)
	default:
		return e
	}
}

// isUnavailable reports whether a producer-side error means the brokers are unreachable.
func isUnavailable(err error) bool {
	var kafkaErr ckafka.Error
	if !errors.As(err, &kafkaErr) {
		return false
	}
	switch kafkaErr.Code() {
	case ckafka.ErrTransport, ckafka.ErrAllBrokersDown, ckafka.ErrNetworkException,
		ckafka.ErrMsgTimedOut, ckafka.ErrTimedOut, ckafka.ErrQueueFull:
		return true
	}
	return kafkaErr.IsFatal()
}
