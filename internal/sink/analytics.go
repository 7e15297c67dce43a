package sink

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"backend-dtg/internal/trip"
)

const (
	exchangeName = "fleet.events"
	queueName    = "trip_completions"
)

// amqpChannel is the slice of *amqp.Channel the publisher needs; tests
// substitute a fake.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AnalyticsPublisher ships finalized trip sessions to the analytics queue.
type AnalyticsPublisher struct {
	ch amqpChannel
}

func ConnectAMQP(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	return conn, nil
}

func NewAnalyticsPublisher(conn *amqp.Connection) (*AnalyticsPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AnalyticsPublisher{ch: ch}, nil
}

func (p *AnalyticsPublisher) RecordTripCompletion(ctx context.Context, session trip.TripSession) error {
	body, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
