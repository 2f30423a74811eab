package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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
	p := NewKafkaPublisher(w)

	o := &models.Order{
		ID:          12,
		UserID:      "u1",
		Status:      models.OrderStatusProcessing,
		PaymentID:   "txn-1",
		TotalAmount: decimal.RequireFromString("25.00"),
	}
	require.NoError(t, p.Publish(context.Background(), NewOrderEvent(OrderPlaced, o)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-12", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.placed", string(msg.Headers[0].Value))

	var got OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, OrderPlaced, got.Type)
	assert.Equal(t, int64(12), got.OrderID)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisher(&fakeWriter{err: errors.New("broker down")})
	err := p.Publish(context.Background(), OrderEvent{Type: OrderPaymentFailed, OrderID: 3})
	assert.ErrorContains(t, err, "broker down")
	assert.ErrorContains(t, err, "order.payment_failed")
}
