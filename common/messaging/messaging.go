// Package messaging is the broker-neutral message bus used by KPI workers.
// The nats subpackage implements it; tests substitute in-memory fakes.
package messaging

import (
	"context"
	"time"
)

// Message is one delivery on the bus.
type Message struct {
	Subject string
	Data    []byte
	// Reply is set when the sender waits for an answer.
	Reply string
	// Metadata travels as message headers.
	Metadata  map[string]string
	Timestamp time.Time
}

// MessageHandler processes a delivery. A returned error is logged by the
// client; the message is not redelivered.
type MessageHandler func(ctx context.Context, msg *Message) error

type Subscription interface {
	Unsubscribe() error
	Subject() string
	IsValid() bool
}

type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	PublishMsg(ctx context.Context, msg *Message) error
	// Request waits up to timeout for a single reply.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*Message, error)
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler MessageHandler) (Subscription, error)
	// QueueSubscribe spreads deliveries across members of queue.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)
	Close() error
}

// Client is a connected bus endpoint.
type Client interface {
	Publisher
	Subscriber
	// Drain stops new deliveries, lets in-flight handlers finish and closes.
	Drain() error
	IsConnected() bool
}
