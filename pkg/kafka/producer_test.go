package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	topic  string
	sent   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.sent = append(w.sent, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(t *testing.T) (*Producer, map[string]*fakeWriter) {
	t.Helper()
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	created := map[string]*fakeWriter{}
	p.newWriter = func(topic string) writer {
		w := &fakeWriter{topic: topic}
		created[topic] = w
		return w
	}
	return p, created
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "plain brokers", cfg: Config{Brokers: []string{"kafka:9092"}}},
		{name: "no brokers", cfg: Config{}, wantErr: true},
		{name: "sasl without user", cfg: Config{Brokers: []string{"k"}, SASLEnabled: true}, wantErr: true},
		{name: "sasl scram", cfg: Config{Brokers: []string{"k"}, SASLEnabled: true, SASLUsername: "u", SASLPassword: "p", SASLMechanism: "SCRAM-SHA-512"}},
		{name: "sasl unknown mechanism", cfg: Config{Brokers: []string{"k"}, SASLEnabled: true, SASLUsername: "u", SASLMechanism: "GSSAPI"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Dialer(t *testing.T) {
	d, err := Config{Brokers: []string{"k"}}.dialer()
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = Config{Brokers: []string{"k"}, TLS: true, SASLEnabled: true, SASLUsername: "u"}.dialer()
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.NotNil(t, d.TLS)
	assert.Equal(t, "PLAIN", d.SASLMechanism.Name())
}

func TestProducer_Publish(t *testing.T) {
	p, writers := newTestProducer(t)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, "collections.events",
		Message{Key: []byte("case-1"), Value: []byte(`{"a":1}`), Headers: map[string]string{"event-type": "x"}},
		Message{Key: []byte("case-1"), Value: []byte(`{"a":2}`)},
	))
	require.NoError(t, p.Publish(ctx, "collections.events", Message{Key: []byte("case-2")}))
	require.NoError(t, p.Publish(ctx, "other"))

	require.Len(t, writers, 1, "one writer per topic, none for empty publishes")
	w := writers["collections.events"]
	require.Len(t, w.sent, 3)
	assert.Equal(t, "case-1", string(w.sent[0].Key))
	require.Len(t, w.sent[0].Headers, 1)
	assert.Equal(t, "event-type", w.sent[0].Headers[0].Key)
	assert.Equal(t, "x", string(w.sent[0].Headers[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	p, _ := newTestProducer(t)
	p.newWriter = func(string) writer { return &fakeWriter{err: errors.New("broker down")} }

	err := p.Publish(context.Background(), "t", Message{Value: []byte("v")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

type fakeReader struct {
	msgs      []kafkago.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		return kafkago.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Start(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := ConsumerOptions{MaxAttempts: 3, Backoff: time.Millisecond}

	t.Run("commits handled messages with headers decoded", func(t *testing.T) {
		r := &fakeReader{msgs: []kafkago.Message{
			{Topic: "t", Offset: 1, Value: []byte("a"), Headers: []kafkago.Header{{Key: "event-type", Value: []byte("x")}}},
			{Topic: "t", Offset: 2, Value: []byte("b")},
		}}
		var seen []Message
		c := newConsumer(r, "t", "g", func(_ context.Context, m Message) error {
			seen = append(seen, m)
			return nil
		}, opts, logger)

		require.NoError(t, c.Start(context.Background()))
		require.Len(t, seen, 2)
		assert.Equal(t, "x", seen[0].Headers["event-type"])
		assert.Equal(t, []int64{1, 2}, r.committed)
	})

	t.Run("retries then drops a failing message", func(t *testing.T) {
		r := &fakeReader{msgs: []kafkago.Message{{Topic: "t", Offset: 7}}}
		calls := 0
		c := newConsumer(r, "t", "g", func(context.Context, Message) error {
			calls++
			return errors.New("db unavailable")
		}, opts, logger)

		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int64{7}, r.committed)
	})

	t.Run("skip is not retried", func(t *testing.T) {
		r := &fakeReader{msgs: []kafkago.Message{{Topic: "t", Offset: 9}}}
		calls := 0
		c := newConsumer(r, "t", "g", func(context.Context, Message) error {
			calls++
			return ErrSkip
		}, opts, logger)

		require.NoError(t, c.Start(context.Background()))
		assert.Equal(t, 1, calls)
		assert.Equal(t, []int64{9}, r.committed)
	})
}
