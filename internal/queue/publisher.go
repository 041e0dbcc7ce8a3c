package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends AccountEvents to a durable queue.  It dials per publish;
// account events are rare enough that holding a channel open is not worth
// the reconnect bookkeeping.
type Publisher struct {
	URL   string
	Queue string
	Log   *slog.Logger
}

func NewPublisher(url, queue string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{URL: url, Queue: queue, Log: log}
}

// Publish delivers ev as a persistent JSON message on the default exchange.
// Failures are logged and returned; callers are free to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev AccountEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.Queue); err != nil {
		p.Log.Warn("rabbitmq queue declare failed", "queue", p.Queue, "err", err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, msg); err != nil {
		p.Log.Warn("rabbitmq publish failed", "type", ev.Type, "err", err)
		return err
	}
	return nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}
