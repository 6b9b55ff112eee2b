package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the slice of the AMQP channel surface this package uses.
// *amqp.Channel satisfies it; tests substitute an in-process fake.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Client owns the broker connection and channel.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial opens the connection and a channel.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

// Channel returns the live channel.
func (c *Client) Channel() Channel { return c.ch }

// Close closes the channel then the connection.
func (c *Client) Close() error {
	if err := c.ch.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// Topology declares the exchange/queue layout for one consuming service.
type Topology struct {
	Exchange        string
	Queue           string
	DeadLetterQueue string
}

// Declare sets up the durable fan-out exchange, the service's durable queue
// bound with an empty routing key, and the dead-letter queue when
// configured. Publishing never blocks on a consumer being present: a
// fan-out exchange with no bound queue drops the message.
func Declare(ch Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(t.Queue, "", t.Exchange, false, nil); err != nil {
		return err
	}
	if t.DeadLetterQueue != "" {
		if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}
