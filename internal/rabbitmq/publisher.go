package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

type Config struct {
	URL   string
	Queue string
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends order events to a durable queue through the default
// exchange. amqp channels are not safe for concurrent publishing, so
// deliveries are serialized.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
}

// Dial connects, opens a channel and declares the queue.
func Dial(cfg Config) (*Publisher, error) {
	const op = "rabbitmq.Dial"

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: channel open: %w", op, err)
	}

	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: queue declare: %w", op, err)
	}

	return &Publisher{conn: conn, ch: ch, queue: cfg.Queue}, nil
}

// Deliver publishes one persistent message per event.
func (p *Publisher) Deliver(ctx context.Context, events ...domain.OrderEvent) error {
	const op = "rabbitmq.Publisher.Deliver"

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ev := range events {
		msg, err := message(ev)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
			return fmt.Errorf("%s: order %d: %w", op, ev.OrderID, err)
		}
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.ch.Close()
	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}

func message(ev domain.OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(ev.Kind),
		Timestamp:    ev.At.UTC(),
		Body:         body,
	}, nil
}
