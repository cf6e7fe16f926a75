package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RabbitPublisher publishes order events to a durable RabbitMQ queue.  It
// dials per publish: orders are completed a few times a minute, and a fresh
// connection avoids tracking broker restarts between them.
type RabbitPublisher struct {
	url   string
	queue string
	log   zerolog.Logger
}

// NewRabbitPublisher returns a publisher for the given broker URL and queue.
func NewRabbitPublisher(url, queue string, log zerolog.Logger) *RabbitPublisher {
	return &RabbitPublisher{url: url, queue: queue, log: log.With().Str("component", "rabbitmq").Logger()}
}

// PublishOrderPlaced publishes ev as a persistent JSON message.  Any error
// is logged and returned so the caller can choose to ignore it.
func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	timeout := dialTimeout(ctx)
	if timeout <= 0 {
		return fmt.Errorf("dial: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		p.log.Error().Err(err).Dur("timeout", timeout).Msg("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()
	// closing the connection unblocks channel calls on a stalled broker
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error().Err(err).Msg("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if err := declareQueue(ch, p.queue); err != nil {
		p.log.Error().Err(err).Str("queue", p.queue).Msg("queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Error().Err(err).Int64("order_id", ev.OrderID).Msg("publish failed")
		return err
	}
	return nil
}

// maxDialTimeout bounds connection setup when ctx carries no deadline.
const maxDialTimeout = 5 * time.Second

// dialTimeout is the time left until ctx's deadline, capped at maxDialTimeout.
func dialTimeout(ctx context.Context) time.Duration {
	d := maxDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}
