package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/urbanfrill/storefront/internal/domain/order"
)

// HeaderEventType carries the envelope's event type so consumers can filter
// without decoding the value.
const HeaderEventType = "event_type"

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order envelopes keyed by order id. Keys hash to
// partitions, so all events of one order stay in order.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (p *Producer) Publish(ctx context.Context, env *order.Envelope) error {
	msg, err := envelopeMessage(env)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", env.EventType, env.AggregateID, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func envelopeMessage(env *order.Envelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", env.EventType, err)
	}
	return kafka.Message{
		Key:     []byte(env.AggregateID),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(env.EventType)}},
		Time:    env.Timestamp,
	}, nil
}
