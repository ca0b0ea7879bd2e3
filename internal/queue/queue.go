// Package queue carries thumbnail jobs from the API to the worker over a
// durable, at-least-once transport (NATS JetStream or RabbitMQ).
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
)

// ThumbnailQueue is the single well-known queue for thumbnail jobs.
const ThumbnailQueue = "PROCESS_THUMBNAIL"

// Delivery is one received message. Exactly one of Ack or Reject must be
// called. Reject never requeues.
type Delivery interface {
	Body() []byte
	Ack() error
	Reject() error
}

// Handler is invoked once per delivery.
type Handler func(ctx context.Context, d Delivery)

type Publisher interface {
	// Publish hands a persistent message to the broker. It returns once the
	// broker has accepted it.
	Publish(ctx context.Context, queue string, body []byte) error
	Close() error
}

type Consumer interface {
	// Consume delivers messages from queue to handler until ctx is cancelled.
	Consume(ctx context.Context, queue string, handler Handler) error
	Close() error
}

// Broker is both ends of a transport.
type Broker interface {
	Publisher
	Consumer
}

// PublishJSON encodes v and publishes it to queue.
func PublishJSON(ctx context.Context, p Publisher, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.Publish(ctx, queue, body)
}

// New connects the broker selected by cfg.Driver.
func New(cfg configuration.QueueConfig) (Broker, error) {
	switch cfg.Driver {
	case "", "nats":
		return NewJetStream(cfg)
	case "amqp", "rabbitmq":
		return NewAMQP(cfg)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
