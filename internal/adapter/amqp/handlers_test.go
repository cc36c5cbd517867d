package amqp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []domain.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func TestEventHandler_RelaysToLocalPublisher(t *testing.T) {
	local := &recordingPublisher{}
	h := NewEventHandler(local, logger.Discard())

	body, err := json.Marshal(domain.Event{ID: 4, Name: domain.EventTempOrderRejected, Target: "555", Payload: json.RawMessage(`{"id":3}`)})
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), body))
	require.Len(t, local.events, 1)
	assert.Equal(t, "555", local.events[0].Target)
	assert.JSONEq(t, `{"id":3}`, string(local.events[0].Payload))
}

func TestEventHandler_RejectsGarbage(t *testing.T) {
	local := &recordingPublisher{}
	h := NewEventHandler(local, logger.Discard())

	assert.Error(t, h.HandleEvent(context.Background(), []byte("{")))
	assert.Error(t, h.HandleEvent(context.Background(), []byte(`{"id":1}`)))
	assert.Empty(t, local.events)
}

func TestNotificationHandler_PrintsEvent(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(&out, logger.Discard())

	body, err := json.Marshal(domain.Event{ID: 2, Name: domain.EventTempOrderApproved, Payload: json.RawMessage(`{"id":9}`)})
	require.NoError(t, err)
	require.NoError(t, h.HandleNotification(context.Background(), body))

	assert.Equal(t, "Event 2 pedidoAprobado for all clients: {\"id\":9}\n", out.String())
}
