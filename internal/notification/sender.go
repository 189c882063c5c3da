// Package notification publishes committed activity entries to the
// outbound operations feed.
//
// Publishing happens after commit from a worker pool task. A failed publish
// is logged and counted; it never affects the mutation that produced it.
//
// Import Path: fieldops.io/fieldops/internal/notification
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/pkg/logger"
)

// Message is one record on the feed.
type Message struct {
	Key       string
	Value     []byte
	EventType string
	Time      time.Time
}

// Sender defines the interface for publishing feed messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaSender.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka feed producer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaSender writes feed messages to a single Kafka topic.
type KafkaSender struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaSender creates a producer for cfg.Topic.
func NewKafkaSender(cfg KafkaConfig) (*KafkaSender, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
	logger.Info("Kafka feed producer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return &KafkaSender{writer: w, topic: cfg.Topic, timeout: cfg.WriteTimeout}, nil
}

// Send writes msg, bounded by the configured write timeout.
func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	if s == nil || s.writer == nil {
		return fmt.Errorf("kafka sender is not initialized")
	}
	if msg.Key == "" {
		return fmt.Errorf("message key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.Time,
	}
	if msg.EventType != "" {
		km.Headers = []kafka.Header{{Key: "event_type", Value: []byte(msg.EventType)}}
	}
	if err := s.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("write to topic %s: %w", s.topic, err)
	}

	logger.Debug("feed message published",
		zap.String("topic", s.topic),
		zap.String("key", msg.Key),
	)
	return nil
}

// Close flushes pending writes and releases the connection.
func (s *KafkaSender) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// NopSender discards every message. Used when the feed is disabled.
type NopSender struct{}

func (NopSender) Send(context.Context, Message) error { return nil }
func (NopSender) Close() error                        { return nil }

// compile-time checks
var (
	_ Sender = (*KafkaSender)(nil)
	_ Sender = NopSender{}
)
