package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rshade/carbonledger/internal/engine"
)

// DefaultTopic is used when no Kafka topic is configured.
const DefaultTopic = "carbonledger.events"

// defaultWriteTimeout bounds a single publish so a dead broker cannot stall
// the CLI.
const defaultWriteTimeout = 5 * time.Second

// eventTypeHeader carries the event type so consumers can route without
// decoding the payload.
const eventTypeHeader = "event_type"

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers,omitempty" json:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"   json:"topic,omitempty"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes ledger events to one topic, keyed by record ID so
// every change to a record lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher returns a synchronous publisher for cfg.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: no brokers configured")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           defaultWriteTimeout,
	}
	return newKafkaPublisher(writer, topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// Topic returns the destination topic.
func (p *KafkaPublisher) Topic() string { return p.topic }

// Publish implements engine.Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, ev engine.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.RecordID),
		Value:   payload,
		Time:    ev.OccurredAt.UTC(),
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(ev.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s to %s: %w", ev.Type, p.topic, err)
	}
	return nil
}

// Close flushes and releases the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
