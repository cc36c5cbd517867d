package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/domain"
)

// RegisterClientEvent is the only event clients send: its data is the
// customer's phone as a JSON string.
const RegisterClientEvent = "registraCliente"

// Frame is the wire format in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Session is one connected client.
type Session interface {
	ID() string
	// Send queues frame without blocking and reports whether it was queued.
	Send(frame []byte) bool
	Close()
}

// Hub tracks live sessions and delivers events to them. It implements
// interfaces.EventPublisher.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]Session
	registry *Registry
	logger   logger.Logger
}

func NewHub(registry *Registry, log logger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]Session),
		registry: registry,
		logger:   log,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

func (h *Hub) Register(s Session) {
	h.mu.Lock()
	h.sessions[s.ID()] = s
	h.mu.Unlock()

	h.logger.Debug("session_connected", "Client connected", "", map[string]interface{}{"session_id": s.ID()})
}

// Unregister forgets the session and every phone bound to it.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	h.registry.Unbind(id)
	if ok {
		s.Close()
		h.logger.Debug("session_disconnected", "Client disconnected", "", map[string]interface{}{"session_id": id})
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast sends the event to every session and returns how many queued it.
func (h *Hub) Broadcast(name string, payload json.RawMessage) int {
	frame, err := encodeFrame(name, payload)
	if err != nil {
		h.logger.Error("frame_encode_failed", "Failed to encode frame", "", map[string]interface{}{"event": name}, err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for id, s := range h.sessions {
		if s.Send(frame) {
			sent++
		} else {
			h.logger.Debug("frame_dropped", "Send buffer full, frame dropped", "",
				map[string]interface{}{"event": name, "session_id": id})
		}
	}
	return sent
}

// SendTo delivers the event to one session only.
func (h *Hub) SendTo(sessionID, name string, payload json.RawMessage) bool {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	frame, err := encodeFrame(name, payload)
	if err != nil {
		h.logger.Error("frame_encode_failed", "Failed to encode frame", "", map[string]interface{}{"event": name}, err)
		return false
	}
	return s.Send(frame)
}

// Publish delivers a committed event. Targeted events go to the session
// currently bound to the target phone; without one they are dropped.
func (h *Hub) Publish(ctx context.Context, ev domain.Event) error {
	if !ev.IsTargeted() {
		n := h.Broadcast(ev.Name, ev.Payload)
		h.logger.Debug("event_broadcast", fmt.Sprintf("Broadcast %s", ev.Name), "",
			map[string]interface{}{"event_id": ev.ID, "sessions": n})
		return nil
	}

	sessionID, ok := h.registry.Lookup(ev.Target)
	if !ok || !h.SendTo(sessionID, ev.Name, ev.Payload) {
		h.logger.Debug("event_dropped", fmt.Sprintf("No live session for %s", ev.Name), "",
			map[string]interface{}{"event_id": ev.ID})
		return nil
	}

	h.logger.Debug("event_sent", fmt.Sprintf("Sent %s to one session", ev.Name), "",
		map[string]interface{}{"event_id": ev.ID, "session_id": sessionID})
	return nil
}

// HandleMessage processes a frame received from a session. Unknown events
// and malformed frames are ignored.
func (h *Hub) HandleMessage(sessionID string, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		h.logger.Debug("frame_invalid", "Ignoring malformed client frame", "", map[string]interface{}{"session_id": sessionID})
		return
	}

	switch f.Event {
	case RegisterClientEvent:
		var phone string
		if err := json.Unmarshal(f.Data, &phone); err != nil || phone == "" {
			return
		}
		h.registry.Bind(phone, sessionID)
		h.logger.Debug("client_registered", "Client bound to phone", "", map[string]interface{}{"session_id": sessionID})
	}
}

func encodeFrame(name string, payload json.RawMessage) ([]byte, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return json.Marshal(Frame{Event: name, Data: payload})
}
