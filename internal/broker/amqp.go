package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client holds the AMQP connection. Each queue gets its own channel, so the
// two consumers never share channel state.
type Client struct {
	conn *amqp.Connection
}

// Dial connects to the broker at the given amqp:// URL.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// IsClosed reports whether the underlying connection has been closed.
func (c *Client) IsClosed() bool {
	return c.conn.IsClosed()
}

// Queue is a durable queue bound to its own channel. It implements both
// Source and Publisher.
type Queue struct {
	ch   *amqp.Channel
	name string
}

// Queue declares a durable queue and returns a handle for it.
func (c *Client) Queue(name string) (*Queue, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return &Queue{ch: ch, name: name}, nil
}

// Publish sends a persistent message to the queue via the default exchange.
func (q *Queue) Publish(ctx context.Context, body []byte) error {
	return q.ch.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
}

// Consume starts delivering messages with manual acknowledgement. Prefetch is
// one: the consumer holds at most a single unacknowledged message, which is
// what gives the pipeline its per-consumer ordering.
func (q *Queue) Consume(ctx context.Context) (<-chan Delivery, error) {
	if err := q.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := q.ch.ConsumeWithContext(ctx, q.name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume queue %s: %w", q.name, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- amqpDelivery{msg}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type amqpDelivery struct {
	msg amqp.Delivery
}

func (d amqpDelivery) Body() []byte           { return d.msg.Body }
func (d amqpDelivery) Ack() error             { return d.msg.Ack(false) }
func (d amqpDelivery) Nack(requeue bool) error { return d.msg.Nack(false, requeue) }
