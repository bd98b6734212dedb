package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	portssvc "github.com/chamahub/treasury/internal/core/ports/services"
	"github.com/chamahub/treasury/internal/middleware"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher emits treasury domain events to a single topic, keyed so all
// events of one aggregate land in one partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to the given topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

var _ portssvc.EventPublisher = (*KafkaPublisher)(nil)

// Publish marshals the event and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured, e.g. in development.
type NoopPublisher struct{}

var _ portssvc.EventPublisher = (*NoopPublisher)(nil)

// Publish logs the event and drops it.
func (p *NoopPublisher) Publish(ctx context.Context, key string, event any) error {
	middleware.GetLoggerFromCtx(ctx).Debug("Event dropped, no brokers configured", slog.String("key", key))
	return nil
}
