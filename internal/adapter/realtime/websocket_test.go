package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/config"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebsocket_RejectionReachesOnlyRegisteredPhone(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	handler := NewHandler(hub, config.RealtimeConfig{
		AllowedOrigins: []string{"*"},
		SendBuffer:     8,
		PingInterval:   time.Second,
	}, logger.Discard())
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ana := dial(t, srv)
	other := dial(t, srv)

	require.NoError(t, ana.WriteJSON(Frame{Event: RegisterClientEvent, Data: []byte(`"555"`)}))
	require.NoError(t, other.WriteJSON(Frame{Event: RegisterClientEvent, Data: []byte(`"556"`)}))
	require.Eventually(t, func() bool { return hub.Registry().Len() == 2 }, 2*time.Second, 10*time.Millisecond)

	ev, err := domain.NewTargetedEvent(domain.EventTempOrderRejected, "555", map[string]int64{"id": 3}, time.Now())
	require.NoError(t, err)
	require.NoError(t, hub.Publish(context.Background(), ev))

	var got Frame
	ana.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, ana.ReadJSON(&got))
	assert.Equal(t, domain.EventTempOrderRejected, got.Event)
	assert.JSONEq(t, `{"id":3}`, string(got.Data))

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "second session must not receive the rejection")
}

func TestWebsocket_DisconnectUnbindsPhone(t *testing.T) {
	hub := NewHub(NewRegistry(), logger.Discard())
	srv := httptest.NewServer(NewHandler(hub, config.RealtimeConfig{AllowedOrigins: []string{"*"}}, logger.Discard()))
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Frame{Event: RegisterClientEvent, Data: []byte(`"555"`)}))
	require.Eventually(t, func() bool { return hub.Registry().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Registry().Len() == 0 && hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
