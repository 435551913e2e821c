package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	kafka_config "parkease/pkg/kafka/config"

	"github.com/segmentio/kafka-go"
)

// Consumer wraps a kafka-go reader in a fetch/handle/commit loop. Handler
// failures are logged and the offset is committed anyway: the durable state
// lives in the store, event delivery is best-effort.
type Consumer struct {
	reader  *kafka.Reader
	topic   string
	groupID string
	handler MessageHandler
	closed  bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

func NewConsumer(cfg *kafka_config.Config, topic string, groupID string, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    cfg.ConsumerMinBytes,
		MaxBytes:    cfg.ConsumerMaxBytes,
		MaxWait:     cfg.ConsumerMaxWait,
		StartOffset: kafka.LastOffset,
		Logger:      kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(log.Printf),
	})

	return &Consumer{
		reader:  reader,
		topic:   topic,
		groupID: groupID,
		handler: handler,
	}, nil
}

// Start consumes until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			kafkaMsg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Printf("kafka consumer error fetching message: %v", err)
				time.Sleep(1 * time.Second)
				continue
			}

			msg := c.convertMessage(kafkaMsg)
			if err := c.handler(ctx, msg); err != nil {
				log.Printf("kafka consumer error processing message: %v", err)
			}

			if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
				log.Printf("kafka consumer error committing offset: %v", err)
			}
		}
	}
}

func (c *Consumer) convertMessage(kafkaMsg kafka.Message) Message {
	msg := Message{
		Key:       string(kafkaMsg.Key),
		Value:     kafkaMsg.Value,
		Headers:   make(map[string]string),
		Topic:     kafkaMsg.Topic,
		Partition: kafkaMsg.Partition,
		Offset:    kafkaMsg.Offset,
		Timestamp: kafkaMsg.Time,
	}
	for _, header := range kafkaMsg.Headers {
		msg.Headers[header.Key] = string(header.Value)
	}
	return msg
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.wg.Wait()
	return c.reader.Close()
}

func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}
