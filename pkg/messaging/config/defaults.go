package config

// applyBusDefaults picks the memory driver for standalone runs.
func applyBusDefaults(cfg *BusConfig, standalone bool) {
	if cfg.Driver == "" {
		cfg.Driver = DriverKafka
		if standalone {
			cfg.Driver = DriverMemory
		}
	}
	if cfg.Partitions == 0 {
		cfg.Partitions = defaultPartitions
	}
}

// applyDefaults applies default values to the configuration
func applyDefaults(cfg *Config, serviceName string) {
	if cfg.ClientID == "" {
		cfg.ClientID = serviceName
	}
	applyConsumerDefaults(&cfg.Consumer)
	applyProducerDefaults(&cfg.Producer)
}

func applyConsumerDefaults(c *ConsumerConfig) {
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = defaultAutoOffsetReset
	}
	if c.MaxRetryAttempts == 0 {
		c.MaxRetryAttempts = defaultMaxRetryAttempts
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.ProcessingTimeout == 0 {
		c.ProcessingTimeout = defaultProcessingTimeout
	}
	if c.PartitionBuffer == 0 {
		c.PartitionBuffer = defaultPartitionBuffer
	}
	// Dead-letter topic naming convention: {topic}.dlq
	if c.DeadLetter.Suffix == "" {
		c.DeadLetter.Suffix = defaultDeadLetterSuffix
	}
}

func applyProducerDefaults(p *ProducerConfig) {
	if p.QueueSize == 0 {
		p.QueueSize = defaultQueueSize
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = defaultProducerRetries
	}
	if p.InitialBackoff == 0 {
		p.InitialBackoff = defaultProducerBackoff
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = defaultProducerMaxBackoff
	}
	if p.DrainTimeout == 0 {
		p.DrainTimeout = defaultDrainTimeout
	}
	if p.DeliveryTimeout == 0 {
		p.DeliveryTimeout = defaultDeliveryTimeout
	}
	if p.ReadinessTimeout == 0 {
		p.ReadinessTimeout = defaultReadinessTimeout
	}
	if p.Breaker.FailureThreshold == 0 {
		p.Breaker.FailureThreshold = defaultBreakerFailures
	}
	if p.Breaker.Timeout == 0 {
		p.Breaker.Timeout = defaultBreakerTimeout
	}
}
