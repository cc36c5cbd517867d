package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter("api-server", &buf, slog.LevelDebug)

	lgr.Error("db_error", "Failed to approve", "req-1", map[string]interface{}{"id": 7}, errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Failed to approve", entry["msg"])
	assert.Equal(t, "api-server", entry[KeyService])
	assert.Equal(t, "db_error", entry[KeyAction])
	assert.Equal(t, "req-1", entry[KeyRequestID])
	assert.Equal(t, map[string]any{"id": float64(7)}, entry[KeyDetails])
	assert.Equal(t, map[string]any{"msg": "boom"}, entry[KeyError])
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lgr := NewWithWriter("api-server", &buf, slog.LevelInfo)

	lgr.Debug("noise", "hidden", "", nil)
	assert.Zero(t, buf.Len())

	lgr.Info("service_started", "visible", "", nil)
	assert.NotZero(t, buf.Len())
}

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Empty(t, RequestID(context.Background()))
}
