package events

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lumenfund/pledgeflow/internal/launcher"
	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Deliverer is the subset of internal/mbroker.Connection a Consumer
// needs, kept narrow so tests can supply a fake.
type Deliverer interface {
	DeclareTopicExchange(name string) error
	BindQueue(exchange, queueName string, routingKeys ...string) (string, error)
	Consume(queueName, consumerTag string) (<-chan amqp.Delivery, error)
	PublishDeadLetter(ctx context.Context, exchange, routingKey string, body []byte) error
}

// Handler processes one decoded Envelope. Returning an error signals a
// transient failure: the delivery is nacked with requeue (spec.md §4.5
// step 4).
type Handler func(ctx context.Context, env Envelope) error

// Consumer binds a durable queue to a topic exchange and runs Handler
// against every delivery (spec.md §4.5).
type Consumer struct {
	Deliverer   Deliverer
	Exchange    string
	QueueName   string
	RoutingKeys []string
	ConsumerTag string
	Handler     Handler
	Logger      mlog.Logger
}

// Run implements launcher.App: bind the queue and loop over deliveries
// until the channel closes.
func (c *Consumer) Run(l *launcher.Launcher) error {
	if err := c.Deliverer.DeclareTopicExchange(c.Exchange); err != nil {
		return err
	}

	if _, err := c.Deliverer.BindQueue(c.Exchange, c.QueueName, c.RoutingKeys...); err != nil {
		return err
	}

	deliveries, err := c.Deliverer.Consume(c.QueueName, c.ConsumerTag)
	if err != nil {
		return err
	}

	ctx := context.Background()

	for d := range deliveries {
		c.handle(ctx, d)
	}

	return nil
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var env Envelope

	if err := json.Unmarshal(d.Body, &env); err != nil {
		c.Logger.Errorf("events: decode error on queue %s: %v", c.QueueName, err)

		if err := d.Ack(false); err != nil {
			c.Logger.Errorf("events: ack after decode failure failed: %v", err)
		}

		if err := c.Deliverer.PublishDeadLetter(ctx, c.Exchange, d.RoutingKey, d.Body); err != nil {
			c.Logger.Errorf("events: dead-lettering undecodable message failed: %v", err)
		}

		return
	}

	if err := c.Handler(ctx, env); err != nil {
		c.Logger.Warnf("events: handler error on %s, requeueing: %v", env.EventType, err)

		if err := d.Nack(false, true); err != nil {
			c.Logger.Errorf("events: nack failed: %v", err)
		}

		return
	}

	if err := d.Ack(false); err != nil {
		c.Logger.Errorf("events: ack failed: %v", err)
	}
}
