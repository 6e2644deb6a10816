package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher delivers an event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON-encoded events to Kafka.
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher with a topic-less writer; the topic is
// set per message.
func NewKafkaPublisher(cfg Config, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish marshals event and writes it to topic under key.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event for %s: %w", topic, err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug("Event published", zap.String("topic", topic), zap.String("key", key))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher writes events as log lines.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher backed by the logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.logger.Info("Event", zap.String("topic", topic), zap.String("key", key), zap.Any("event", event))
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }

// New returns a Kafka publisher when brokers are configured, otherwise a logger
// publisher.
func New(cfg Config, logger *zap.Logger) Publisher {
	if cfg.Enabled() {
		return NewKafkaPublisher(cfg, logger)
	}
	return NewLogPublisher(logger)
}
