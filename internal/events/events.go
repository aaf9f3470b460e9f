package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubevts "github.com/Niv-Kor/PlayerTwoServer/pkg/events"
	"github.com/rabbitmq/amqp091-go"
)

const defaultTimeout = 5 * time.Second

var exchanges = []string{
	pubevts.ExchangeSessionCreated,
	pubevts.ExchangePlayerJoined,
	pubevts.ExchangeSessionStarted,
	pubevts.ExchangeSessionEnded,
}

// Publisher handles publishing session lifecycle events to RabbitMQ.
type Publisher struct {
	ch *amqp091.Channel
}

// NewPublisher creates a new event publisher.
func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	for _, exchange := range exchanges {
		if err := ch.ExchangeDeclare(
			exchange,
			"direct",
			false,
			false,
			false,
			false,
			nil,
		); err != nil {
			return nil, fmt.Errorf("could not declare exchange %s: %w", exchange, err)
		}
	}
	return &Publisher{ch: ch}, nil
}

// PublishSessionCreated publishes a session created event.
func (p *Publisher) PublishSessionCreated(ctx context.Context, event pubevts.SessionCreatedEvent) error {
	return p.publishEvent(ctx, pubevts.ExchangeSessionCreated, event)
}

// PublishPlayerJoined publishes a player joined event.
func (p *Publisher) PublishPlayerJoined(ctx context.Context, event pubevts.PlayerJoinedEvent) error {
	return p.publishEvent(ctx, pubevts.ExchangePlayerJoined, event)
}

// PublishSessionStarted publishes a session started event.
func (p *Publisher) PublishSessionStarted(ctx context.Context, event pubevts.SessionStartedEvent) error {
	return p.publishEvent(ctx, pubevts.ExchangeSessionStarted, event)
}

// PublishSessionEnded publishes a session ended event.
func (p *Publisher) PublishSessionEnded(ctx context.Context, event pubevts.SessionEndedEvent) error {
	return p.publishEvent(ctx, pubevts.ExchangeSessionEnded, event)
}

// publishEvent publishes an event to a specific exchange.
func (p *Publisher) publishEvent(ctx context.Context, exchange string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	if err := p.ch.PublishWithContext(
		ctx,
		exchange,
		"",
		false,
		false,
		amqp091.Publishing{
			ContentType: pubevts.ContentType,
			Body:        data,
		},
	); err != nil {
		return fmt.Errorf("could not publish event to %s: %w", exchange, err)
	}
	return nil
}

// SetupMonitoringQueueBindings declares and binds one monitoring queue per
// lifecycle exchange so operators can observe the event stream.
func SetupMonitoringQueueBindings(ch *amqp091.Channel) error {
	for _, exchange := range exchanges {
		queueName := "monitor." + exchange
		if _, err := ch.QueueDeclare(
			queueName,
			false,
			false,
			false,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare monitor queue for %s: %w", exchange, err)
		}

		if err := ch.QueueBind(
			queueName,
			"",
			exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to bind monitor queue to %s: %w", exchange, err)
		}
	}
	return nil
}
