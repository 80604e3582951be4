package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"shipsync/internal/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	queue     []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.queue) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestPublish(t *testing.T) {
	writer := &fakeWriter{}
	p := &Publisher{writer: writer}

	err := p.Publish(context.Background(), Event{ID: "r-1", Type: TypeReportRequested, Day: "2026-02-28", Force: true})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "r-1", string(writer.messages[0].Key))

	var event Event
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, "2026-02-28", event.Day)
	assert.True(t, event.Force)
	assert.False(t, event.Timestamp.IsZero())
}

func TestConsumerRunCommitsEveryMessage(t *testing.T) {
	good, _ := json.Marshal(Event{ID: "a", Type: TypeReportRequested})
	failing, _ := json.Marshal(Event{ID: "b", Type: TypeReportRequested})
	reader := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: good},
		{Offset: 2, Value: []byte("not json")},
		{Offset: 3, Value: failing},
	}}
	c := &Consumer{reader: reader, logger: logger.New("error")}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var handled []string
	err := c.Run(ctx, func(ctx context.Context, event Event) error {
		handled = append(handled, event.ID)
		if event.ID == "b" {
			return errors.New("boom")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, handled)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, Brokers(" k1:9092, ,k2:9092"))
	assert.Nil(t, Brokers(""))
}
