package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes order events to a Kafka topic.  Messages are
// keyed by order id so all events of one order land on one partition.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaWriter builds the writer used by NewKafkaPublisher.  Events are
// written one at a time on the request path, so the batch window is kept
// short instead of the library's one second default.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           3 * time.Second,
	}
}

// NewKafkaPublisher wraps w.
func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher { return &KafkaPublisher{w: w} }

// PublishOrderPlaced writes ev as a JSON message.
func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlacedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error { return p.w.Close() }
