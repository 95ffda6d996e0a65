// Package mbroker wraps a single AMQP connection/channel used both by the
// outbox publisher (Subsystem A) and the bus consumers (Subsystem E),
// grounded on the teacher's common/mrabbitmq/rabbitmq.go connection and
// components/audit/internal/bootstrap/consumer.go consume loop.
package mbroker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Connection is a hub that deals with RabbitMQ connectivity, lazily
// reconnecting on the next Channel call after the connection closes; each
// reconnect is a single dial attempt with no retry loop.
type Connection struct {
	URL    string
	Logger mlog.Logger

	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
}

// Connect dials the broker and opens one channel.
func (c *Connection) Connect() error {
	c.Logger.Info("connecting to broker...")

	conn, err := amqp.Dial(c.URL)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = ch
	c.connected = true

	c.Logger.Info("connected to broker")

	return nil
}

// Channel returns the AMQP channel, connecting lazily if necessary.
func (c *Connection) Channel() (*amqp.Channel, error) {
	if !c.connected || c.conn.IsClosed() {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.channel, nil
}

// Close closes the channel and the underlying connection.
func (c *Connection) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

// DeclareTopicExchange declares a durable topic exchange, idempotent
// across repeated calls.
func (c *Connection) DeclareTopicExchange(name string) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}

	return ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

// Publish sends a persistent, application/json message to exchange with
// the given routing key. Used by the outbox poller (Subsystem A).
func (c *Connection) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	ch, err := c.Channel()
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// BindQueue declares a durable queue bound to exchange for the given
// routing patterns, returning the queue name for Consume.
func (c *Connection) BindQueue(exchange, queueName string, routingKeys ...string) (string, error) {
	ch, err := c.Channel()
	if err != nil {
		return "", err
	}

	if err := c.DeclareTopicExchange(exchange); err != nil {
		return "", err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return "", err
	}

	for _, rk := range routingKeys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			return "", err
		}
	}

	return q.Name, nil
}

// Consume returns a channel of deliveries with manual acknowledgement, as
// Subsystem E's contract requires.
func (c *Connection) Consume(queueName, consumerTag string) (<-chan amqp.Delivery, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}

	return ch.Consume(queueName, consumerTag, false, false, false, false, nil)
}

// PublishDeadLetter routes a poison message to "<exchange>.dlq" for
// operator inspection.
func (c *Connection) PublishDeadLetter(ctx context.Context, exchange, routingKey string, body []byte) error {
	dlq := exchange + ".dlq"
	if err := c.DeclareTopicExchange(dlq); err != nil {
		return err
	}

	return c.Publish(ctx, dlq, routingKey, body)
}
