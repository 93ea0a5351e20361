// Package amqp publishes domain events to RabbitMQ.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"experiences/internal/adapters/observability"
	"experiences/internal/domain"
)

const BookingCreatedQueue = "booking.created"

// Publisher dials per publish; booking volume is low and this keeps no
// connection state to recover.
type Publisher struct {
	url   string
	queue string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, queue: BookingCreatedQueue}
}

func (p *Publisher) PublishBookingCreated(ctx context.Context, ev domain.BookingCreated) (err error) {
	start := time.Now()
	defer func() { observability.ObserveExternal("rabbitmq", "publish", err, time.Since(start)) }()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", p.queue, err)
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    fmt.Sprintf("booking-%d", ev.BookingID),
		Type:         BookingCreatedQueue,
		Body:         body,
	})
}
