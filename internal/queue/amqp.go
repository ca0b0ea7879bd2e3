package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type AMQP struct {
	conn     *amqp.Connection
	mu       sync.Mutex // guards pubCh
	pubCh    *amqp.Channel
	prefetch int
	tag      string
}

func NewAMQP(cfg configuration.QueueConfig) (*AMQP, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch, ThumbnailQueue); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logging.L().Info("[RabbitMQ] connected")
	return &AMQP{conn: conn, pubCh: ch, prefetch: cfg.Prefetch, tag: cfg.DurableName}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	return nil
}

func persistentMessage(body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}
}

func (a *AMQP) Publish(ctx context.Context, queue string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.pubCh.Publish("", queue, false, false, persistentMessage(body)); err != nil {
		logging.WithContext(ctx).Warn("[RabbitMQ] publish failed", zap.String("queue", queue), zap.Error(err))
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Consume opens a dedicated channel with a prefetch window of a.prefetch
// unacknowledged messages.
func (a *AMQP) Consume(ctx context.Context, queue string, handler Handler) error {
	ch, err := a.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, queue); err != nil {
		return err
	}
	if a.prefetch > 0 {
		if err := ch.Qos(a.prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set qos: %w", err)
		}
	}

	deliveries, err := ch.Consume(queue, a.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}
	logging.L().Info("[RabbitMQ] consuming", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			_ = ch.Cancel(a.tag, false)
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			handler(ctx, amqpDelivery{d: d})
		}
	}
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pubCh != nil {
		_ = a.pubCh.Close()
	}
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (d amqpDelivery) Body() []byte { return d.d.Body }

func (d amqpDelivery) Ack() error { return d.d.Ack(false) }

func (d amqpDelivery) Reject() error { return d.d.Nack(false, false) }
