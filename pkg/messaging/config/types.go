package config

import "time"

// Driver selects the bus implementation.
type Driver string

const (
	DriverKafka  Driver = "kafka"
	DriverMemory Driver = "memory"
)

// BusConfig is read from the "bus" section.
type BusConfig struct {
	Driver     Driver `mapstructure:"driver"`     // kafka or memory (memory is the default in standalone)
	Partitions int    `mapstructure:"partitions"` // Partitions per topic for the memory broker (1-256)
}

// Config represents the "kafka" section.
type Config struct {
	Brokers  string         `mapstructure:"brokers"`   // Comma-separated list of broker addresses (e.g., "kafka:9092")
	ClientID string         `mapstructure:"client-id"` // Client id reported to the brokers (defaults to the service name)
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Producer ProducerConfig `mapstructure:"producer"`
}

// ConsumerConfig holds the consumer group runtime settings.
type ConsumerConfig struct {
	GroupID           string           `mapstructure:"group-id"`           // Consumer group id (required when consuming)
	AutoOffsetReset   string           `mapstructure:"auto-offset-reset"`  // "earliest" or "latest" when the group has no committed offset
	Topics            []string         `mapstructure:"topics"`             // Topics to subscribe to
	MaxRetryAttempts  int              `mapstructure:"max-retry-attempts"` // Handler attempts per message (1-100)
	InitialBackoff    time.Duration    `mapstructure:"initial-backoff"`    // First retry delay (100ms-30s)
	MaxBackoff        time.Duration    `mapstructure:"max-backoff"`        // Retry delay ceiling (1s-5m)
	ProcessingTimeout time.Duration    `mapstructure:"processing-timeout"` // Timeout of a single handler attempt (1s-10m)
	PartitionBuffer   int              `mapstructure:"partition-buffer"`   // Queue length of each partition worker (1-10000)
	DeadLetter        DeadLetterConfig `mapstructure:"dead-letter"`
}

// FromBeginning reports whether a fresh group starts at the earliest retained offset.
func (c ConsumerConfig) FromBeginning() bool {
	return c.AutoOffsetReset == offsetEarliest
}

// DeadLetterConfig controls forwarding of skipped messages.
type DeadLetterConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Suffix  string `mapstructure:"suffix"` // Appended to the source topic, ".dlq" by default
}

// Topic returns the dead-letter topic for source.
func (c DeadLetterConfig) Topic(source string) string {
	return source + c.Suffix
}

// ProducerConfig holds the asynchronous emitter settings.
type ProducerConfig struct {
	QueueSize        int           `mapstructure:"queue-size"`        // Bounded emit queue length (1-100000)
	MaxRetries       int           `mapstructure:"max-retries"`       // Publish retries after the first attempt (0-20)
	InitialBackoff   time.Duration `mapstructure:"initial-backoff"`   // First publish retry delay
	MaxBackoff       time.Duration `mapstructure:"max-backoff"`       // Publish retry delay ceiling
	DrainTimeout     time.Duration `mapstructure:"drain-timeout"`     // Time allowed to flush the queue on shutdown
	DeliveryTimeout  time.Duration `mapstructure:"delivery-timeout"`  // Wait for a single delivery report
	ReadinessTimeout time.Duration `mapstructure:"readiness-timeout"` // Broker probing window at startup (0 disables probing)
	Breaker          BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the publisher.
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure-threshold"` // Consecutive failures that open the circuit
	Timeout          time.Duration `mapstructure:"timeout"`           // Open state duration before a half-open probe
}
