// Package kafka publishes reply events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/codeer/pkg/eventstream"
)

// DefaultTopic is the topic reply events are written to when none is set.
const DefaultTopic = "codeer.replies"

// Config configures a Publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration
}

// Publisher writes one Kafka message per reply event, keyed by chat id so
// the events of a chat stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           cfg.WriteTimeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// PublishReply marshals event and writes it to the topic.
func (p *Publisher) PublishReply(ctx context.Context, event *eventstream.ReplyEvent) error {
	msg, err := message(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing reply event: %w", err)
	}
	return nil
}

// Topic returns the topic events are written to.
func (p *Publisher) Topic() string {
	return p.writer.Topic
}

// Close flushes pending writes and closes the connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func message(event *eventstream.ReplyEvent) (kafka.Message, error) {
	if err := event.Validate(); err != nil {
		return kafka.Message{}, err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling reply event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.HistoryID, 10)),
		Value: value,
		Time:  event.EmittedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}, nil
}
