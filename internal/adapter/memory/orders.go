package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/YelzhanWeb/pos/internal/domain"
)

type orderRepo struct{ store *Store }

func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	st := r.store.st
	for _, it := range o.Items {
		if _, ok := st.products[it.ProductID]; !ok {
			return fmt.Errorf("failed to insert order item: product %d does not exist", it.ProductID)
		}
	}

	o.ID = st.id()
	header := *o
	header.Items = nil
	st.orders[o.ID] = header

	for i := range o.Items {
		o.Items[i].ID = st.id()
		o.Items[i].OrderID = o.ID
		st.items[o.Items[i].ID] = o.Items[i]
	}
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id int64) (*domain.Order, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	o, ok := r.store.st.orders[id]
	if !ok {
		return nil, domain.NotFound("order not found")
	}
	o.Items = r.itemsOf(id)
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context) ([]domain.Order, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	out := make([]domain.Order, 0, len(r.store.st.orders))
	for _, o := range r.store.st.orders {
		o.Items = r.itemsOf(o.ID)
		out = append(out, o)
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (r *orderRepo) FindOpenByTable(ctx context.Context, tableID int64) (*domain.Order, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	var open []domain.Order
	for _, o := range r.store.st.orders {
		if o.TableID == tableID && o.Status == domain.OrderStatusOpen {
			open = append(open, o)
		}
	}
	if len(open) == 0 {
		return nil, domain.NotFound("no open order for table")
	}
	sortOrdersNewestFirst(open)
	o := open[0]
	o.Items = r.itemsOf(o.ID)
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	o, ok := r.store.st.orders[id]
	if !ok {
		return domain.NotFound("order not found")
	}
	o.Status = status
	r.store.st.orders[id] = o
	return nil
}

func (r *orderRepo) UpdateTotal(ctx context.Context, id int64, order *domain.Order) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	o, ok := r.store.st.orders[id]
	if !ok {
		return domain.NotFound("order not found")
	}
	o.Total = order.Total
	r.store.st.orders[id] = o
	return nil
}

func (r *orderRepo) GetItem(ctx context.Context, itemID int64) (*domain.OrderItem, error) {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	it, ok := r.store.st.items[itemID]
	if !ok {
		return nil, domain.NotFound("order item not found")
	}
	return &it, nil
}

func (r *orderRepo) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	st := r.store.st
	existing, ok := st.items[item.ID]
	if !ok {
		return domain.NotFound("order item not found")
	}
	if _, ok := st.products[item.ProductID]; !ok {
		return fmt.Errorf("failed to update order item: product %d does not exist", item.ProductID)
	}
	item.OrderID = existing.OrderID
	st.items[item.ID] = *item
	return nil
}

func (r *orderRepo) DeleteItem(ctx context.Context, itemID int64) error {
	r.store.lock(ctx)
	defer r.store.unlock(ctx)

	if _, ok := r.store.st.items[itemID]; !ok {
		return domain.NotFound("order item not found")
	}
	delete(r.store.st.items, itemID)
	return nil
}

// itemsOf must be called with the store locked.
func (r *orderRepo) itemsOf(orderID int64) []domain.OrderItem {
	items := make([]domain.OrderItem, 0)
	for _, it := range r.store.st.items {
		if it.OrderID == orderID {
			if p, ok := r.store.st.products[it.ProductID]; ok {
				it.ProductName = p.Name
			}
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}
