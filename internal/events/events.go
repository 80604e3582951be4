package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shipsync/internal/logger"

	"github.com/segmentio/kafka-go"
)

const TypeReportRequested = "report.requested"

// Event is the envelope of every message on the report topic.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Day       string    `json:"day,omitempty"`
	Force     bool      `json:"force,omitempty"`
	Requester string    `json:"requester,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Brokers splits a comma separated broker list.
func Brokers(list string) []string {
	var brokers []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

type Publisher struct {
	writer messageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish writes event keyed by its id.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(event.ID), Value: value}); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Handler processes one event. A returned error is logged and the message is
// still committed: the reader has moved past it and it is not redelivered.
type Handler func(ctx context.Context, event Event) error

type Consumer struct {
	reader messageReader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *logger.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6, // 10MB
			CommitInterval: time.Second,
		}),
		logger: logger,
	}
}

// Run reads messages until ctx is done. Malformed messages and messages
// whose handler fails are committed and dropped.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	c.logger.Info("consumer started, listening for events...")
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("failed to read message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		c.logger.Debug("received message: %s", string(message.Value))

		var event Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.logger.Error("failed to parse event: %v", err)
			c.commit(ctx, message)
			continue
		}

		if err := handle(ctx, event); err != nil {
			c.logger.Error("failed to process event %s, dropping it: %v", event.ID, err)
		}
		c.commit(ctx, message)
	}
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		c.logger.Error("failed to commit offset %d: %v", message.Offset, err)
	}
}

func (c *Consumer) Close() error {
	c.logger.Info("stopping consumer...")
	return c.reader.Close()
}
