// Package queue_publisher publishes domain events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	q "github.com/DentistProject66/backend-dentist/internal/queue"
)

// Publisher sends events over a short-lived connection per
// publish. Traffic on these queues is a handful of messages per
// minute, so connection reuse is not worth the reconnect
// bookkeeping.
type Publisher struct {
	URL string
	Log zerolog.Logger
}

func New(url string, log zerolog.Logger) *Publisher {
	return &Publisher{URL: url, Log: log}
}

// UserApproved publishes a UserApprovedEvent. Best effort.
func (p *Publisher) UserApproved(ctx context.Context, ev q.UserApprovedEvent) error {
	return p.publish(ctx, q.QueueUserApproved, ev)
}

// AppointmentBooked publishes an AppointmentBookedEvent. Best effort.
func (p *Publisher) AppointmentBooked(ctx context.Context, ev q.AppointmentBookedEvent) error {
	return p.publish(ctx, q.QueueAppointmentBooked, ev)
}

func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	if p == nil || p.URL == "" {
		return nil // publishing disabled
	}
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn().Err(err).Str("queue", queueName).Msg("rabbitmq dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn().Err(err).Str("queue", queueName).Msg("rabbitmq channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.Log.Warn().Err(err).Str("queue", queueName).Msg("rabbitmq queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.Log.Warn().Err(err).Str("queue", queueName).Msg("event marshal failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		p.Log.Warn().Err(err).Str("queue", queueName).Msg("rabbitmq publish failed")
		return err
	}
	return nil
}
