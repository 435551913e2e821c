package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvKafkaBrokers              = "KAFKA_BROKERS"
	EnvKafkaEventsTopic          = "KAFKA_EVENTS_TOPIC"
	EnvKafkaConsumerGroup        = "KAFKA_CONSUMER_GROUP"
	EnvKafkaProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaConsumerMinBytes     = "KAFKA_CONSUMER_MIN_BYTES"
	EnvKafkaConsumerMaxBytes     = "KAFKA_CONSUMER_MAX_BYTES"
	EnvKafkaConsumerMaxWait      = "KAFKA_CONSUMER_MAX_WAIT"

	DefaultKafkaBrokers          = "localhost:9092"
	DefaultKafkaEventsTopic      = "parkease.events"
	DefaultKafkaConsumerGroup    = "parkease-relay"
	DefaultProducerMaxAttempts   = 3
	DefaultProducerBatchTimeout  = 50 * time.Millisecond
	DefaultConsumerMinBytes      = 1
	DefaultConsumerMaxBytes      = 1 << 20
	DefaultConsumerMaxWaitMillis = 500
)

// Config holds the broker and topic settings for the event channel.
type Config struct {
	Brokers       []string
	EventsTopic   string
	ConsumerGroup string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration

	ConsumerMinBytes int
	ConsumerMaxBytes int
	ConsumerMaxWait  time.Duration
}

func Load() (*Config, error) {
	brokersStr := getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)
	brokers := strings.Split(brokersStr, ",")
	for i, broker := range brokers {
		brokers[i] = strings.TrimSpace(broker)
	}

	cfg := &Config{
		Brokers:       brokers,
		EventsTopic:   getEnvStr(EnvKafkaEventsTopic, DefaultKafkaEventsTopic),
		ConsumerGroup: getEnvStr(EnvKafkaConsumerGroup, DefaultKafkaConsumerGroup),

		ProducerMaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),

		ConsumerMinBytes: getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes: getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:  getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWaitMillis*time.Millisecond),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("at least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			return fmt.Errorf("broker %d cannot be empty", i)
		}
	}
	if cfg.EventsTopic == "" {
		return fmt.Errorf("events topic cannot be empty")
	}
	if cfg.ConsumerGroup == "" {
		return fmt.Errorf("consumer group cannot be empty")
	}
	if cfg.ProducerMaxAttempts <= 0 {
		return fmt.Errorf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts)
	}
	if cfg.ProducerBatchTimeout <= 0 {
		return fmt.Errorf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout)
	}
	if cfg.ConsumerMinBytes <= 0 || cfg.ConsumerMaxBytes < cfg.ConsumerMinBytes {
		return fmt.Errorf("consumer byte bounds invalid: min=%d max=%d", cfg.ConsumerMinBytes, cfg.ConsumerMaxBytes)
	}
	if cfg.ConsumerMaxWait <= 0 {
		return fmt.Errorf("ConsumerMaxWait must be positive, got: %s", cfg.ConsumerMaxWait)
	}
	return nil
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
