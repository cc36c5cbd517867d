package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

type outboxRepository struct {
	db DB
}

func NewOutboxRepository(db DB) interfaces.OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, ev *domain.Event) error {
	query := `
		INSERT INTO outbox_events (name, target, payload, created_at)
		VALUES ($1, $2, $3::json, $4)
		RETURNING id
	`
	err := conn(ctx, r.db).QueryRow(ctx, query, ev.Name, ev.Target, string(ev.Payload), ev.CreatedAt).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("failed to append event %s: %w", ev.Name, err)
	}
	return nil
}

// ClaimPending locks the oldest undispatched rows; other dispatchers skip
// them until this transaction ends.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]domain.Event, error) {
	query := `
		SELECT id, name, target, payload, created_at
		FROM outbox_events
		WHERE dispatched_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := conn(ctx, r.db).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			ev      domain.Event
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Target, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Payload = payload
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkDispatched(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := conn(ctx, r.db).Exec(ctx,
		`UPDATE outbox_events SET dispatched_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to mark events dispatched: %w", err)
	}
	return nil
}
