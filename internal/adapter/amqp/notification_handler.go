package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/domain"
)

// NotificationHandler prints every event on the backplane. It backs the
// notification-subscriber mode used to watch traffic from a terminal.
type NotificationHandler struct {
	out    io.Writer
	logger logger.Logger
}

func NewNotificationHandler(out io.Writer, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		out:    out,
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var ev domain.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received event %s", ev.Name), "",
		map[string]interface{}{
			"event_id": ev.ID,
			"event":    ev.Name,
			"targeted": ev.IsTargeted(),
		})

	scope := "all clients"
	if ev.IsTargeted() {
		scope = "phone " + ev.Target
	}
	fmt.Fprintf(h.out, "Event %d %s for %s: %s\n", ev.ID, ev.Name, scope, ev.Payload)

	return nil
}
