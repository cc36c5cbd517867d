package realtime

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/config"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

type wsSession struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn, buffer int) *wsSession {
	return &wsSession{
		id:   id,
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (s *wsSession) ID() string { return s.id }

func (s *wsSession) Send(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *wsSession) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// writePump is the only goroutine writing to conn.
func (s *wsSession) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Handler upgrades GET /ws and runs one session per connection.
type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	sendBuffer   int
	pingInterval time.Duration
	logger       logger.Logger
}

func NewHandler(hub *Hub, cfg config.RealtimeConfig, log logger.Logger) *Handler {
	h := &Handler{
		hub:          hub,
		sendBuffer:   cfg.SendBuffer,
		pingInterval: cfg.PingInterval,
		logger:       log,
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = 32
	}
	if h.pingInterval <= 0 {
		h.pingInterval = 30 * time.Second
	}

	allowed := cfg.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("ws_upgrade_failed", "Websocket upgrade failed", logger.RequestID(r.Context()), nil)
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		h.logger.Error("session_id_failed", "Failed to generate session id", "", nil, err)
		conn.Close()
		return
	}

	s := newSession(id.String(), conn, h.sendBuffer)
	h.hub.Register(s)
	go s.writePump(h.pingInterval)

	h.readPump(s)
}

func (h *Handler) readPump(s *wsSession) {
	defer h.hub.Unregister(s.id)

	pongWait := h.pingInterval * 2
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws_read_failed", err.Error(), "", map[string]interface{}{"session_id": s.id})
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.hub.HandleMessage(s.id, msg)
	}
}
