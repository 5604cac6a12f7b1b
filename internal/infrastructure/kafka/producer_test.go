package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfrill/storefront/internal/domain/order"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestEnvelope(t *testing.T) *order.Envelope {
	t.Helper()
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	env, err := order.NewEnvelope("order-42", order.EventOrderPaid, map[string]string{"status": "paid"}, at)
	require.NoError(t, err)
	return env
}

func TestProducer_PublishKeysByOrder(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	env := newTestEnvelope(t)

	require.NoError(t, p.Publish(context.Background(), env))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-42", string(msg.Key))
	assert.Equal(t, env.Timestamp, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, order.EventOrderPaid, string(msg.Headers[0].Value))

	var decoded order.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.ID, decoded.ID)
	assert.JSONEq(t, `{"status":"paid"}`, string(decoded.Data))
}

func TestProducer_PublishWrapsWriteError(t *testing.T) {
	writeErr := errors.New("leader not available")
	p := &Producer{writer: &fakeWriter{err: writeErr}}

	err := p.Publish(context.Background(), newTestEnvelope(t))

	assert.ErrorIs(t, err, writeErr)
	assert.Contains(t, err.Error(), "OrderPaid for order order-42")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
