package config

import (
	"fmt"
	"strings"
)

func validateBusConfig(cfg *BusConfig) error {
	if cfg.Driver != DriverKafka && cfg.Driver != DriverMemory {
		return fmt.Errorf("bus driver must be 'kafka' or 'memory', got: %s", cfg.Driver)
	}
	if cfg.Partitions < minPartitions || cfg.Partitions > maxPartitions {
		return fmt.Errorf("bus partitions must be between %d and %d, got: %d",
			minPartitions, maxPartitions, cfg.Partitions)
	}
	return nil
}

// validateConfig validates the entire messaging configuration
func validateConfig(cfg *Config, driver Driver) error {
	if driver == DriverKafka {
		if err := validateBrokers(cfg); err != nil {
			return err
		}
	}
	if err := validateConsumerConfig(&cfg.Consumer); err != nil {
		return err
	}
	if err := validateProducerConfig(&cfg.Producer); err != nil {
		return err
	}
	return nil
}

// validateBrokers validates Kafka brokers configuration
func validateBrokers(cfg *Config) error {
	if strings.TrimSpace(cfg.Brokers) == "" {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	return nil
}

func validateConsumerConfig(c *ConsumerConfig) error {
	if c.AutoOffsetReset != offsetEarliest && c.AutoOffsetReset != offsetLatest {
		return fmt.Errorf("auto offset reset must be 'earliest' or 'latest', got: %s", c.AutoOffsetReset)
	}
	if c.MaxRetryAttempts < minMaxRetryAttempts || c.MaxRetryAttempts > maxMaxRetryAttempts {
		return fmt.Errorf("max retry attempts must be between %d and %d, got: %d",
			minMaxRetryAttempts, maxMaxRetryAttempts, c.MaxRetryAttempts)
	}
	if c.InitialBackoff < minInitialBackoff || c.InitialBackoff > maxInitialBackoff {
		return fmt.Errorf("initial backoff must be between %v and %v, got: %v",
			minInitialBackoff, maxInitialBackoff, c.InitialBackoff)
	}
	if c.MaxBackoff < minMaxBackoff || c.MaxBackoff > maxMaxBackoffDuration {
		return fmt.Errorf("max backoff must be between %v and %v, got: %v",
			minMaxBackoff, maxMaxBackoffDuration, c.MaxBackoff)
	}
	if c.InitialBackoff > c.MaxBackoff {
		return fmt.Errorf("initial backoff (%v) cannot be greater than max backoff (%v)",
			c.InitialBackoff, c.MaxBackoff)
	}
	if c.ProcessingTimeout < minProcessingTimeout || c.ProcessingTimeout > maxProcessingTimeout {
		return fmt.Errorf("processing timeout must be between %v and %v, got: %v",
			minProcessingTimeout, maxProcessingTimeout, c.ProcessingTimeout)
	}
	if c.PartitionBuffer < minPartitionBuffer || c.PartitionBuffer > maxPartitionBuffer {
		return fmt.Errorf("partition buffer must be between %d and %d, got: %d",
			minPartitionBuffer, maxPartitionBuffer, c.PartitionBuffer)
	}
	for i, topic := range c.Topics {
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("consumer topic[%d] cannot be empty", i)
		}
		if c.DeadLetter.Enabled && strings.HasSuffix(topic, c.DeadLetter.Suffix) {
			return fmt.Errorf("consumer topic %s cannot be a dead-letter topic", topic)
		}
	}
	return nil
}

// validateProducerConfig validates producer configuration
func validateProducerConfig(p *ProducerConfig) error {
	if p.QueueSize < minQueueSize || p.QueueSize > maxQueueSize {
		return fmt.Errorf("producer queue size must be between %d and %d, got: %d",
			minQueueSize, maxQueueSize, p.QueueSize)
	}
	if p.MaxRetries < 0 || p.MaxRetries > maxProducerRetries {
		return fmt.Errorf("producer max retries must be between 0 and %d, got: %d",
			maxProducerRetries, p.MaxRetries)
	}
	if p.InitialBackoff > p.MaxBackoff {
		return fmt.Errorf("producer initial backoff (%v) cannot be greater than max backoff (%v)",
			p.InitialBackoff, p.MaxBackoff)
	}
	if p.ReadinessTimeout > maxReadinessTimeout {
		return fmt.Errorf("producer readiness timeout cannot exceed %v, got: %v",
			maxReadinessTimeout, p.ReadinessTimeout)
	}
	return nil
}
