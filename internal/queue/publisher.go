// Package queue publishes lead lifecycle events to RabbitMQ for downstream
// consumers. The pipeline works without a broker; publishing is optional.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
)

// Broker topology for lead events.
const (
	ExchangeName = "ex.leads"
	QueueName    = "q.leads.created"
	RoutingKey   = "k.lead.created"
)

// Publisher emits lead lifecycle events. Publish failures are log-only at
// the call site and never affect persistence.
type Publisher interface {
	PublishLeadCreated(ctx context.Context, lead model.Lead) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLeadCreated(context.Context, model.Lead) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

// leadCreatedPayload is the wire format of a lead.created event.
type leadCreatedPayload struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Source          string    `json:"source"`
	VehicleInterest string    `json:"vehicle_interest"`
	CreatedAt       time.Time `json:"created_at"`
}

// RabbitMQPublisher publishes persistent JSON events on a durable
// exchange/queue pair.
type RabbitMQPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitMQ connects to the broker and declares the lead-event topology.
func NewRabbitMQ(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQPublisher{conn: conn, ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring queue: %w", err)
	}
	if err := ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("binding queue: %w", err)
	}
	return nil
}

// PublishLeadCreated emits one persistent lead.created event.
func (p *RabbitMQPublisher) PublishLeadCreated(ctx context.Context, lead model.Lead) error {
	body, err := json.Marshal(leadCreatedPayload{
		ID:              lead.ID,
		Name:            lead.Name,
		Source:          lead.Source,
		VehicleInterest: lead.VehicleInterest,
		CreatedAt:       lead.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding lead event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangeName, RoutingKey, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing lead event: %w", err)
	}
	return nil
}

// Close shuts down the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}
