package memory

import (
	"context"
	"slices"
	"time"

	"github.com/YelzhanWeb/pos/internal/domain"
)

type outboxRepo struct{ store *Store }

func (r *outboxRepo) Append(ctx context.Context, ev *domain.Event) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	ev.ID = r.store.st.id()
	r.store.st.outbox = append(r.store.st.outbox, *ev)
	return nil
}

func (r *outboxRepo) ClaimPending(ctx context.Context, limit int) ([]domain.Event, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	var out []domain.Event
	for _, ev := range r.store.st.outbox {
		if ev.DispatchedAt != nil {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkDispatched(ctx context.Context, ids []int64) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	now := time.Now().UTC()
	for i := range r.store.st.outbox {
		if slices.Contains(ids, r.store.st.outbox[i].ID) {
			r.store.st.outbox[i].DispatchedAt = &now
		}
	}
	return nil
}

// Events returns a copy of every outbox entry. Tests use it to assert what
// a workflow recorded.
func (s *Store) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.outbox)
}
