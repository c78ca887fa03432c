package events

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
)

var occurred = time.Date(2024, time.June, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

func loggedEvent() engine.Event {
	rec := engine.ActivityRecord{
		ID:        "01HZX",
		Category:  greenops.CategoryFood,
		Type:      "beef",
		Value:     0.5,
		Unit:      greenops.UnitKg,
		CO2Impact: 13.5,
		Timestamp: occurred,
	}
	return engine.Event{Type: engine.EventActivityLogged, RecordID: rec.ID, Activity: &rec, OccurredAt: occurred}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "ledger")

	require.NoError(t, p.Publish(context.Background(), loggedEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("01HZX"), msg.Key)
	assert.Equal(t, occurred.UTC(), msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, eventTypeHeader, msg.Headers[0].Key)
	assert.Equal(t, "activity_logged", string(msg.Headers[0].Value))

	var decoded engine.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, engine.EventActivityLogged, decoded.Type)
	require.NotNil(t, decoded.Activity)
	assert.InDelta(t, 13.5, decoded.Activity.CO2Impact, 1e-9)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "ledger")

	err := p.Publish(context.Background(), loggedEvent())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "activity_logged")
	assert.Contains(t, err.Error(), "ledger")
}

func TestNewKafkaPublisher(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{})
	require.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, p.Topic())
	require.NoError(t, p.Close())
}

func TestWriterPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewWriterPublisher(&buf)

	require.NoError(t, p.Publish(context.Background(), loggedEvent()))
	require.NoError(t, p.Publish(context.Background(), engine.Event{
		Type: engine.EventActivityRemoved, RecordID: "01HZX", OccurredAt: occurred,
	}))

	scanner := bufio.NewScanner(&buf)
	var types []engine.EventType
	for scanner.Scan() {
		var ev engine.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		types = append(types, ev.Type)
	}
	assert.Equal(t, []engine.EventType{engine.EventActivityLogged, engine.EventActivityRemoved}, types)
	assert.NotContains(t, buf.String(), `"activity":null`)
}

type errPublisher struct{ err error }

func (p errPublisher) Publish(context.Context, engine.Event) error { return p.err }

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	first := errors.New("first")
	second := errors.New("second")

	m := Multi{errPublisher{first}, NewWriterPublisher(&buf), errPublisher{second}}
	err := m.Publish(context.Background(), loggedEvent())

	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	assert.NotEmpty(t, buf.String(), "a failing publisher must not block the others")

	require.NoError(t, Multi(nil).Publish(context.Background(), loggedEvent()))
}

type ctxRecorder struct {
	called bool
	ctxErr error
}

func (r *ctxRecorder) Publish(ctx context.Context, _ engine.Event) error {
	r.called = true
	r.ctxErr = ctx.Err()
	return nil
}

func TestMulti_FailureDoesNotCancelOthers(t *testing.T) {
	failed := errors.New("failed")
	rec := &ctxRecorder{}

	err := Multi{errPublisher{failed}, rec}.Publish(context.Background(), loggedEvent())
	require.ErrorIs(t, err, failed)
	assert.True(t, rec.called)
	assert.NoError(t, rec.ctxErr)

	require.NoError(t, Multi{&ctxRecorder{}, &ctxRecorder{}}.Publish(context.Background(), loggedEvent()))
}

func TestOpen(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		cfg := Config{}
		assert.False(t, cfg.Enabled())

		pub, closeFn, err := Open(cfg)
		require.NoError(t, err)
		require.NoError(t, pub.Publish(context.Background(), loggedEvent()))
		require.NoError(t, closeFn())
	})

	t.Run("audit log appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit", "events.ndjson")
		cfg := Config{AuditLog: path}
		assert.True(t, cfg.Enabled())

		for range 2 {
			pub, closeFn, err := Open(cfg)
			require.NoError(t, err)
			require.NoError(t, pub.Publish(context.Background(), loggedEvent()))
			require.NoError(t, closeFn())
		}

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
	})

	t.Run("kafka enabled", func(t *testing.T) {
		cfg := Config{Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}}
		assert.True(t, cfg.Enabled())

		pub, closeFn, err := Open(cfg)
		require.NoError(t, err)
		require.Len(t, pub.(Multi), 1)
		require.NoError(t, closeFn())
	})
}
