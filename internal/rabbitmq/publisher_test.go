package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

type fakeChannel struct {
	keys   []string
	msgs   []amqp.Publishing
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestDeliverPublishesPersistentMessages(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "orders.events"}

	at := time.Date(2021, 6, 2, 9, 30, 0, 0, time.UTC)
	events := []domain.OrderEvent{
		{Kind: domain.OrderPlaced, At: at, OrderID: 1, Username: "alice", TrainID: "G1", Seats: 2, Price: 50, Status: domain.OrderSuccess},
		{Kind: domain.OrderQueued, At: at, OrderID: 2, Username: "bob", TrainID: "G1", Seats: 9, Price: 50, Status: domain.OrderPending},
	}

	require.NoError(t, p.Deliver(context.Background(), events...))

	assert.Equal(t, []string{"orders.events", "orders.events"}, ch.keys)
	require.Len(t, ch.msgs, 2)

	msg := ch.msgs[1]
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "order.queued", msg.Type)
	assert.Equal(t, at, msg.Timestamp)
	assert.NotEmpty(t, msg.MessageId)
	assert.NotEqual(t, ch.msgs[0].MessageId, msg.MessageId)

	var got domain.OrderEvent
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, events[1], got)
}

func TestDeliverReportsPublishFailure(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: errors.New("channel closed")}, queue: "q"}

	err := p.Deliver(context.Background(), domain.OrderEvent{Kind: domain.OrderPlaced, OrderID: 3})
	assert.ErrorContains(t, err, "order 3")
}

func TestCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch}

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
