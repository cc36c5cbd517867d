package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/YelzhanWeb/pos/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	ack       bool
	acks      chan amqp.Confirmation
	declared  []string
	published []amqp.Publishing
	keys      []string
	closed    bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(string, bool, bool, bool, bool, amqp.Table) (Queue, error) {
	return Queue{Name: "amq.gen-test"}, nil
}

func (f *fakeChannel) QueueBind(string, string, string, bool, amqp.Table) error { return nil }

func (f *fakeChannel) Confirm(bool) error { return nil }

func (f *fakeChannel) NotifyPublish() <-chan amqp.Confirmation {
	f.acks = make(chan amqp.Confirmation, 8)
	return f.acks
}

func (f *fakeChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	f.acks <- amqp.Confirmation{DeliveryTag: uint64(len(f.published)), Ack: f.ack}
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return nil, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func (f *fakeChannel) NotifyClose() <-chan *amqp.Error { return make(chan *amqp.Error) }

type fakeConnection struct {
	ch     *fakeChannel
	opened int
}

func (f *fakeConnection) Channel() (Channel, error) {
	f.opened++
	return f.ch, nil
}

func (f *fakeConnection) Close() error { return nil }

func (f *fakeConnection) IsClosed() bool { return false }

func TestPublisher_PublishesToFanoutAndWaitsForConfirm(t *testing.T) {
	conn := &fakeConnection{ch: &fakeChannel{ack: true}}
	pub := NewPublisher(conn, "pos.events")

	ev := domain.Event{ID: 7, Name: domain.EventTempOrderRejected, Target: "555", Payload: json.RawMessage(`{"id":3}`)}
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.NoError(t, pub.Publish(context.Background(), ev))

	assert.Equal(t, 1, conn.opened, "channel is reused between publishes")
	assert.Equal(t, []string{"pos.events:fanout"}, conn.ch.declared)
	assert.Equal(t, []string{"pos.events/pedidoTemporalRechazado", "pos.events/pedidoTemporalRechazado"}, conn.ch.keys)

	var got domain.Event
	require.NoError(t, json.Unmarshal(conn.ch.published[0].Body, &got))
	assert.Equal(t, "555", got.Target)
	assert.JSONEq(t, `{"id":3}`, string(got.Payload))
}

func TestPublisher_NackIsAnError(t *testing.T) {
	conn := &fakeConnection{ch: &fakeChannel{ack: false}}
	pub := NewPublisher(conn, "pos.events")

	err := pub.Publish(context.Background(), domain.Event{Name: domain.EventTableCreated, Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}
