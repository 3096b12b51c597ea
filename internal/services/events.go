package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderStatusEvent is published whenever an order changes status. Downstream
// consumers (analytics, fulfillment dashboards) subscribe to the topic.
type OrderStatusEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventPublisher writes order status events to Kafka. A nil publisher or one
// constructed without brokers drops events; publication is best-effort and
// never gates a state change.
type EventPublisher struct {
	writer *kafka.Writer
}

// NewEventPublisher creates a publisher for the given brokers and topic.
// Returns a no-op publisher when brokers is empty.
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	if len(brokers) == 0 {
		return &EventPublisher{}
	}

	return &EventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishOrderStatus emits a status-change event keyed by order id.
func (p *EventPublisher) PublishOrderStatus(ctx context.Context, event OrderStatusEvent) {
	if p == nil || p.writer == nil {
		return
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] Failed to marshal order status event: %v", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[Events] Failed to publish order status event: %v", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *EventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
