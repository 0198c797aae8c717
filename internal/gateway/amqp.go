package gateway

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-faster/errors"
)

// receiptRoutingKey is the routing key for published receipt events.
const receiptRoutingKey = "notifications.receipt"

// receiptEvent is the message published for each receipt.
type receiptEvent struct {
	Email   string    `json:"email"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

// AMQPNotifier publishes receipt events to a RabbitMQ exchange instead of
// mailing the customer directly; a downstream consumer owns delivery.
type AMQPNotifier struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPNotifier dials the broker and declares a durable topic exchange.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}

	return &AMQPNotifier{conn: conn, ch: ch, exchange: exchange}, nil
}

// Send publishes the receipt as a persistent JSON message.
func (n *AMQPNotifier) Send(ctx context.Context, email, subject, body string) error {
	payload, err := json.Marshal(receiptEvent{
		Email:   email,
		Subject: subject,
		Body:    body,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return &GatewayError{Provider: "amqp", Err: err}
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, receiptRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return &GatewayError{Provider: "amqp", Err: err}
	}
	return nil
}

// Close releases the channel and connection.
func (n *AMQPNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		_ = n.conn.Close()
		return errors.Wrap(err, "close channel")
	}
	return n.conn.Close()
}
