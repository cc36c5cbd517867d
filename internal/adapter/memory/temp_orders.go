package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/YelzhanWeb/pos/internal/domain"
)

type tempOrderRepo struct{ store *Store }

func (r *tempOrderRepo) Create(ctx context.Context, t *domain.TempOrder) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	t.ID = r.store.st.id()
	r.store.st.tempOrders[t.ID] = copyTempOrder(*t)
	return nil
}

func (r *tempOrderRepo) Get(ctx context.Context, id int64) (*domain.TempOrder, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	t, ok := r.store.st.tempOrders[id]
	if !ok {
		return nil, domain.NotFound("temporary order not found")
	}
	t = copyTempOrder(t)
	return &t, nil
}

func (r *tempOrderRepo) List(ctx context.Context, status *domain.TempOrderStatus) ([]domain.TempOrder, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	out := make([]domain.TempOrder, 0, len(r.store.st.tempOrders))
	for _, t := range r.store.st.tempOrders {
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, copyTempOrder(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *tempOrderRepo) Delete(ctx context.Context, id int64) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if _, ok := r.store.st.tempOrders[id]; !ok {
		return domain.NotFound("temporary order not found")
	}
	delete(r.store.st.tempOrders, id)
	return nil
}

func (r *tempOrderRepo) SetTrusted(ctx context.Context, id int64, trusted bool) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	t, ok := r.store.st.tempOrders[id]
	if !ok {
		return domain.NotFound("temporary order not found")
	}
	t.Trusted = trusted
	r.store.st.tempOrders[id] = t
	return nil
}

func (r *tempOrderRepo) TrustByPhone(ctx context.Context, phone string) (domain.TrustStatus, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	status := domain.TrustStatus{}
	for _, t := range r.store.st.tempOrders {
		if t.Phone != phone {
			continue
		}
		if !status.Exists {
			status = domain.TrustStatus{Exists: true, Trusted: t.Trusted}
			continue
		}
		status.Trusted = status.Trusted && t.Trusted
	}
	return status, nil
}

func (r *tempOrderRepo) Transition(ctx context.Context, id int64, from, to domain.TempOrderStatus) (*domain.TempOrder, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if !from.CanTransitionTo(to) {
		return nil, fmt.Errorf("invalid temporary order transition %s -> %s", from, to)
	}

	t, ok := r.store.st.tempOrders[id]
	if !ok || t.Status != from {
		return nil, domain.NotFound("no pending temporary order with that id")
	}
	t.Status = to
	r.store.st.tempOrders[id] = t
	t = copyTempOrder(t)
	return &t, nil
}

func copyTempOrder(t domain.TempOrder) domain.TempOrder {
	t.Details = slices.Clone(t.Details)
	return t
}
