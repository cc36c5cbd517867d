package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

// Record appends a broadcast event. Call it with the transaction context of
// the state change it describes.
func Record(ctx context.Context, repo interfaces.OutboxRepository, name string, payload any, now time.Time) error {
	ev, err := domain.NewEvent(name, payload, now)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return repo.Append(ctx, &ev)
}

// RecordTargeted appends an event meant only for the session of phone.
func RecordTargeted(ctx context.Context, repo interfaces.OutboxRepository, name, phone string, payload any, now time.Time) error {
	ev, err := domain.NewTargetedEvent(name, phone, payload, now)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return repo.Append(ctx, &ev)
}
