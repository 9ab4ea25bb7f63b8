// Package events publishes order and booking lifecycle events for downstream
// consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	OrderCreated         = "order.created"
	OrderStatusChanged   = "order.status_changed"
	BookingCreated       = "booking.created"
	BookingStatusChanged = "booking.status_changed"
)

// Events are written from request handlers, so the writer flushes after a
// short linger instead of kafka-go's one second default.
const (
	batchTimeout = 10 * time.Millisecond
	writeTimeout = 5 * time.Second
)

// Event is the JSON document written for every lifecycle change. Customer
// contact details are left out.
type Event struct {
	Type       string    `json:"type"`
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	FromStatus string    `json:"from_status,omitempty"`
	Total      int64     `json:"total,omitempty"`
	ItemCount  int       `json:"item_count,omitempty"`
	Guests     string    `json:"guests,omitempty"`
	Date       string    `json:"date,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by document id, so every event for one
// order lands on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events; it is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
