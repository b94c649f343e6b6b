package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
)

// mockKafkaReader serves queued messages then blocks until cancelled.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error { return nil }

func (m *mockKafkaReader) commitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

func newTestConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "aopgraph-worker",
		Topics:  []string{TopicExportPublished},
		RetryConfig: RetryConfig{
			RetryBackoff:    time.Millisecond,
			MaxRetryBackoff: 2 * time.Millisecond,
		},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(newTestConsumerConfig()))

	cfg := newTestConsumerConfig()
	cfg.Brokers = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = newTestConsumerConfig()
	cfg.GroupID = ""
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = newTestConsumerConfig()
	cfg.AutoOffsetReset = "middle"
	assert.Error(t, ValidateConsumerConfig(cfg))
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(config.KafkaConfig{
		Brokers:         []string{"k:9092"},
		GroupID:         "g",
		DeadLetterTopic: "dlq",
		MaxAttempts:     2,
	})
	assert.Equal(t, []string{TopicExportPublished}, cfg.Topics)
	assert.Equal(t, "dlq", cfg.RetryConfig.DeadLetterTopic)
	assert.Equal(t, 2, cfg.RetryConfig.MaxRetries)
}

func TestStart_AlreadyRunning(t *testing.T) {
	c := newConsumer(&mockKafkaReader{}, newTestConsumerConfig(), nil, logging.NewNopLogger())
	c.running.Store(true)
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))
}

func TestConsumeLoop_DispatchesAndCommits(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{
		{Topic: TopicExportPublished, Value: []byte("one"), Headers: []kafka.Header{{Key: "event_type", Value: []byte("x")}}},
		{Topic: "unrouted", Value: []byte("two")},
	}}
	c := newConsumer(reader, newTestConsumerConfig(), nil, logging.NewNopLogger())

	got := make(chan *Message, 1)
	c.Subscribe(TopicExportPublished, func(_ context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	select {
	case msg := <-got:
		assert.Equal(t, []byte("one"), msg.Value)
		assert.Equal(t, "x", msg.Headers["event_type"])
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
	assert.Eventually(t, func() bool { return reader.commitCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestProcessMessage_RetriesThenSucceeds(t *testing.T) {
	cfg := newTestConsumerConfig()
	cfg.RetryConfig.MaxRetries = 3
	c := newConsumer(&mockKafkaReader{}, cfg, nil, logging.NewNopLogger())

	calls := 0
	err := c.processMessage(context.Background(), &Message{Topic: "t"}, func(context.Context, *Message) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.EqualValues(t, 2, c.metrics.MessagesRetried.Load())
}

func TestProcessMessage_DeadLetter(t *testing.T) {
	cfg := newTestConsumerConfig()
	cfg.RetryConfig.MaxRetries = 1
	cfg.RetryConfig.DeadLetterTopic = TopicDeadLetter
	w := &mockKafkaWriter{}
	c := newConsumer(&mockKafkaReader{}, cfg, newTestProducer(w), logging.NewNopLogger())

	msg := &Message{Topic: TopicExportPublished, Offset: 42, Value: []byte("payload"), Headers: map[string]string{}}
	err := c.processMessage(context.Background(), msg, func(context.Context, *Message) error {
		return errors.New("corrupt export")
	})
	require.Error(t, err)
	require.Len(t, w.written, 1)

	dl := w.written[0]
	assert.Equal(t, TopicDeadLetter, dl.Topic)
	assert.Equal(t, []byte("payload"), dl.Value)
	headers := map[string]string{}
	for _, h := range dl.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TopicExportPublished, headers["original_topic"])
	assert.Equal(t, "42", headers["original_offset"])
	assert.Equal(t, "corrupt export", headers["error_message"])
	assert.Empty(t, msg.Headers)

	_, failed, dead := c.Stats()
	assert.Zero(t, failed)
	assert.EqualValues(t, 1, dead)
}

func TestProcessMessage_ContextCancelled(t *testing.T) {
	cfg := newTestConsumerConfig()
	cfg.RetryConfig.MaxRetries = 5
	cfg.RetryConfig.RetryBackoff = time.Hour
	c := newConsumer(&mockKafkaReader{}, cfg, nil, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.processMessage(ctx, &Message{}, func(context.Context, *Message) error { return errors.New("x") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumerClose_Idempotent(t *testing.T) {
	c := newConsumer(&mockKafkaReader{}, newTestConsumerConfig(), nil, logging.NewNopLogger())
	require.NoError(t, c.Start(context.Background()))
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
