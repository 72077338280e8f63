package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes order events keyed by order number.
type KafkaProducer struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// NewKafkaProducer returns a producer whose writes do not block the caller.
// Delivery failures are logged from the writer's completion callback and
// Close flushes whatever is still buffered.
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) *KafkaProducer {
	p := &KafkaProducer{timeout: 10 * time.Second, logger: logger}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           p.timeout,
		Completion:             p.completed,
	}
	return p
}

// completed runs on the writer's goroutine once a batch is acknowledged or dropped.
func (p *KafkaProducer) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.logger.Warn("order event not delivered",
			zap.String("order_number", string(m.Key)),
			zap.String("type", headerValue(m, "event_type")),
			zap.Error(err))
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaProducer) Publish(ctx context.Context, e OrderEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(e.OrderNumber),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for %s: %w", e.Type, e.OrderNumber, err)
	}

	p.logger.Debug("order event queued",
		zap.String("event_id", e.EventID),
		zap.String("type", string(e.Type)),
		zap.String("order_number", e.OrderNumber))
	return nil
}

// Close flushes buffered events and closes the writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
