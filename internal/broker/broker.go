// Package broker connects the pipeline to the message broker. The two
// consumers depend only on the Source and Publisher interfaces, so tests can
// drive them with in-memory queues.
package broker

import "context"

// Delivery is a single in-flight message with manual acknowledgement.
type Delivery interface {
	Body() []byte
	Ack() error
	// Nack returns the message to the broker; with requeue it will be
	// redelivered.
	Nack(requeue bool) error
}

// Source yields deliveries from one queue.
type Source interface {
	Consume(ctx context.Context) (<-chan Delivery, error)
}

// Publisher publishes message bodies to one queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}
