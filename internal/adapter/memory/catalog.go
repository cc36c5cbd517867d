package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/YelzhanWeb/pos/internal/domain"
)

type productRepo struct{ store *Store }

func (r *productRepo) List(ctx context.Context) ([]domain.Product, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	out := make([]domain.Product, 0, len(r.store.st.products))
	for _, p := range r.store.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) Types(ctx context.Context) ([]string, error) {
	return slices.Clone(r.store.productTypes), nil
}

func (r *productRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	p, ok := r.store.st.products[id]
	if !ok {
		return nil, domain.NotFound("product not found")
	}
	return &p, nil
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if !slices.Contains(r.store.productTypes, p.Type) {
		return domain.Validation(fmt.Sprintf("invalid product type %q", p.Type))
	}
	p.ID = r.store.st.id()
	r.store.st.products[p.ID] = *p
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if _, ok := r.store.st.products[p.ID]; !ok {
		return domain.NotFound("product not found")
	}
	if !slices.Contains(r.store.productTypes, p.Type) {
		return domain.Validation(fmt.Sprintf("invalid product type %q", p.Type))
	}
	r.store.st.products[p.ID] = *p
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if _, ok := r.store.st.products[id]; !ok {
		return domain.NotFound("product not found")
	}
	for _, it := range r.store.st.items {
		if it.ProductID == id {
			return fmt.Errorf("delete product %d: foreign key violation", id)
		}
	}
	delete(r.store.st.products, id)
	return nil
}

func (r *productRepo) CountOrderItems(ctx context.Context, productID int64) (int, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	n := 0
	for _, it := range r.store.st.items {
		if it.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type tableRepo struct{ store *Store }

func (r *tableRepo) List(ctx context.Context) ([]domain.Table, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	out := make([]domain.Table, 0, len(r.store.st.tables))
	for _, t := range r.store.st.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *tableRepo) Get(ctx context.Context, id int64) (*domain.Table, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	t, ok := r.store.st.tables[id]
	if !ok {
		return nil, domain.NotFound("table not found")
	}
	return &t, nil
}

func (r *tableRepo) Create(ctx context.Context, t *domain.Table) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	t.ID = r.store.st.id()
	r.store.st.tables[t.ID] = *t
	return nil
}

func (r *tableRepo) Update(ctx context.Context, t *domain.Table) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if _, ok := r.store.st.tables[t.ID]; !ok {
		return domain.NotFound("table not found")
	}
	r.store.st.tables[t.ID] = *t
	return nil
}

func (r *tableRepo) Delete(ctx context.Context, id int64) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if _, ok := r.store.st.tables[id]; !ok {
		return domain.NotFound("table not found")
	}
	delete(r.store.st.tables, id)
	return nil
}

func (r *tableRepo) CountOrders(ctx context.Context, tableID int64) (int, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	n := 0
	for _, o := range r.store.st.orders {
		if o.TableID == tableID {
			n++
		}
	}
	return n, nil
}

type settingsRepo struct{ store *Store }

func (r *settingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	s := r.store.st.settings
	return &s, nil
}

func (r *settingsRepo) SetDeliveryEnabled(ctx context.Context, enabled bool) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	r.store.st.settings.DeliveryEnabled = enabled
	return nil
}

type userRepo struct{ store *Store }

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	for _, u := range r.store.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	for _, existing := range r.store.st.users {
		if existing.Username == u.Username {
			return domain.Conflict("username already exists")
		}
	}
	u.ID = r.store.st.id()
	r.store.st.users[u.ID] = *u
	return nil
}
