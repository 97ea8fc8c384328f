// Package queue abstracts the durable order queue. Delivery is
// at-least-once: a received message stays invisible to other consumers
// until the visibility timeout lapses, then becomes eligible for
// redelivery unless acknowledged first.
package queue

import (
	"context"
	"time"
)

// Message is one raw queue entry. ID is the receipt handle used to
// acknowledge it; Body is the opaque payload.
type Message struct {
	ID   string
	Body []byte
}

// Queue is the durable message queue the consumer drains and the
// publisher feeds.
type Queue interface {
	// Ensure creates the queue if it does not exist yet. Idempotent.
	Ensure(ctx context.Context) error
	// Receive long-polls for up to max messages, blocking up to wait.
	// An empty result is not an error.
	Receive(ctx context.Context, max int64, wait time.Duration) ([]Message, error)
	// Ack removes delivered messages from the queue.
	Ack(ctx context.Context, ids ...string) error
	// Publish appends one message body and returns its ID.
	Publish(ctx context.Context, body []byte) (string, error)
}
