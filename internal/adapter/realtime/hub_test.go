package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id     string
	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	var f Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		panic(err)
	}
	s.frames = append(s.frames, f)
	return true
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) received() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Frame(nil), s.frames...)
}

func register(t *testing.T, hub *Hub, id, phone string) *fakeSession {
	t.Helper()
	s := &fakeSession{id: id}
	hub.Register(s)
	if phone != "" {
		hub.HandleMessage(id, []byte(`{"event":"registraCliente","data":"`+phone+`"}`))
	}
	return s
}

func TestHub_TargetedEventReachesOnlyBoundSession(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	ana := register(t, hub, "s1", "555")
	other := register(t, hub, "s2", "556")

	ev, err := domain.NewTargetedEvent(domain.EventTempOrderRejected, "555", map[string]int64{"id": 3}, time.Now())
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), ev))

	got := ana.received()
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventTempOrderRejected, got[0].Event)
	assert.JSONEq(t, `{"id":3}`, string(got[0].Data))
	assert.Empty(t, other.received())
}

func TestHub_TargetedEventWithoutSessionIsDropped(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	s := register(t, hub, "s1", "556")

	ev, err := domain.NewTargetedEvent(domain.EventTempOrderRejected, "555", map[string]int64{"id": 3}, time.Now())
	require.NoError(t, err)
	assert.NoError(t, hub.Publish(context.Background(), ev))
	assert.Empty(t, s.received())
}

func TestHub_BroadcastReachesEverySession(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	a := register(t, hub, "s1", "")
	b := register(t, hub, "s2", "555")
	full := &fakeSession{id: "s3", full: true}
	hub.Register(full)

	ev, err := domain.NewEvent(domain.EventTempOrderApproved, map[string]int64{"id": 9}, time.Now())
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), ev))

	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
	assert.Equal(t, 2, hub.Broadcast(domain.EventTempOrderApproved, ev.Payload))
}

func TestHub_UnregisterUnbindsPhones(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	s := register(t, hub, "s1", "555")

	hub.Unregister("s1")

	_, ok := hub.Registry().Lookup("555")
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Len())
	assert.True(t, s.closed)
}

func TestHub_IgnoresMalformedRegistration(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	register(t, hub, "s1", "")

	hub.HandleMessage("s1", []byte(`not json`))
	hub.HandleMessage("s1", []byte(`{"event":"registraCliente","data":555}`))
	hub.HandleMessage("s1", []byte(`{"event":"otro","data":"555"}`))

	assert.Equal(t, 0, hub.Registry().Len())
}

func TestRegistry_LastBindWins(t *testing.T) {
	r := NewRegistry()
	r.Bind("555", "s1")
	r.Bind("555", "s2")

	id, ok := r.Lookup("555")
	require.True(t, ok)
	assert.Equal(t, "s2", id)

	// The old session going away must not remove the newer binding.
	r.Unbind("s1")
	id, ok = r.Lookup("555")
	require.True(t, ok)
	assert.Equal(t, "s2", id)

	r.Unbind("s2")
	_, ok = r.Lookup("555")
	assert.False(t, ok)
}
