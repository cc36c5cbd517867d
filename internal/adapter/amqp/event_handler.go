package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

// EventHandler relays events arriving from the backplane to a local
// publisher, normally the realtime hub of this instance.
type EventHandler struct {
	local  interfaces.EventPublisher
	logger logger.Logger
}

func NewEventHandler(local interfaces.EventPublisher, logger logger.Logger) *EventHandler {
	return &EventHandler{
		local:  local,
		logger: logger,
	}
}

func (h *EventHandler) HandleEvent(ctx context.Context, body []byte) error {
	var ev domain.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse event message", "", nil, err)
		return err
	}
	if ev.Name == "" {
		return fmt.Errorf("event %d has no name", ev.ID)
	}

	return h.local.Publish(ctx, ev)
}
