package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

const Exchange = "tailor_updates"

// Update is the status message published for a run.
type Update struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RoutingKey is the topic a run's updates are published under.
func RoutingKey(runID string) string {
	return fmt.Sprintf("run.%s", runID)
}

// Publisher sends run status updates to RabbitMQ.
type Publisher struct {
	conn *amqp.Connection
}

// Dial connects to the broker and declares the updates exchange.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}
	defer ch.Close()
	err = ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Publish(update Update) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	return ch.Publish(
		Exchange,
		RoutingKey(update.RunID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   update.Timestamp,
			Body:        body,
		},
	)
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
