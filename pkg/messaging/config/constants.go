package config

import "time"

const (
	offsetEarliest = "earliest"
	offsetLatest   = "latest"

	// Default values.
	defaultPartitions         = 3
	defaultAutoOffsetReset    = offsetEarliest
	defaultMaxRetryAttempts   = 3
	defaultInitialBackoff     = 1 * time.Second
	defaultMaxBackoff         = 30 * time.Second
	defaultProcessingTimeout  = 30 * time.Second
	defaultPartitionBuffer    = 100
	defaultDeadLetterSuffix   = ".dlq"
	defaultQueueSize          = 1000
	defaultProducerRetries    = 3
	defaultProducerBackoff    = 200 * time.Millisecond
	defaultProducerMaxBackoff = 5 * time.Second
	defaultDrainTimeout       = 10 * time.Second
	defaultDeliveryTimeout    = 10 * time.Second
	defaultReadinessTimeout   = 30 * time.Second
	defaultBreakerFailures    = 5
	defaultBreakerTimeout     = 30 * time.Second

	// Validation bounds.
	minPartitions         = 1
	maxPartitions         = 256
	minMaxRetryAttempts   = 1
	maxMaxRetryAttempts   = 100
	minInitialBackoff     = 100 * time.Millisecond
	maxInitialBackoff     = 30 * time.Second
	minMaxBackoff         = 1 * time.Second
	maxMaxBackoffDuration = 5 * time.Minute
	minProcessingTimeout  = 1 * time.Second
	maxProcessingTimeout  = 10 * time.Minute
	minPartitionBuffer    = 1
	maxPartitionBuffer    = 10000
	minQueueSize          = 1
	maxQueueSize          = 100000
	maxProducerRetries    = 20
	maxReadinessTimeout   = 10 * time.Minute
)
