package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, table_id, total, status, created_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	q := conn(ctx, r.db)

	query := `
		INSERT INTO orders (table_id, total, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := q.QueryRow(ctx, query,
		order.TableID, order.Total, order.Status, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		itemQuery := `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err = q.QueryRow(ctx, itemQuery,
			order.ID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item for product %d: %w", item.ProductID, err)
		}
		item.OrderID = order.ID
	}

	return nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	q := conn(ctx, r.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order domain.Order
	err := q.QueryRow(ctx, query, id).Scan(
		&order.ID, &order.TableID, &order.Total, &order.Status, &order.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "order")
	}

	items, err := r.items(ctx, q, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	q := conn(ctx, r.db)

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	var ids []int64
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.TableID, &order.Total, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.items(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

func (r *orderRepository) FindOpenByTable(ctx context.Context, tableID int64) (*domain.Order, error) {
	q := conn(ctx, r.db)

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE table_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var order domain.Order
	err := q.QueryRow(ctx, query, tableID, domain.OrderStatusOpen).Scan(
		&order.ID, &order.TableID, &order.Total, &order.Status, &order.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "open order for table")
	}

	items, err := r.items(ctx, q, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

func (r *orderRepository) UpdateTotal(ctx context.Context, id int64, order *domain.Order) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `UPDATE orders SET total = $1 WHERE id = $2`, order.Total, id)
	if err != nil {
		return fmt.Errorf("failed to update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

func (r *orderRepository) GetItem(ctx context.Context, itemID int64) (*domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.id = $1
	`

	var item domain.OrderItem
	err := conn(ctx, r.db).QueryRow(ctx, query, itemID).Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
		&item.Quantity, &item.UnitPrice, &item.Subtotal,
	)
	if err != nil {
		return nil, notFound(err, "order item")
	}
	return &item, nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		UPDATE order_items
		SET product_id = $1, quantity = $2, unit_price = $3, subtotal = $4
		WHERE id = $5
		RETURNING order_id
	`
	err := conn(ctx, r.db).QueryRow(ctx, query,
		item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal, item.ID,
	).Scan(&item.OrderID)
	if err != nil {
		return notFound(err, "order item")
	}
	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("order item not found")
	}
	return nil
}

// items loads the items of the given orders keyed by order id.
func (r *orderRepository) items(ctx context.Context, q Querier, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`
	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	// every requested order gets a non-nil list, even without items
	out := make(map[int64][]domain.OrderItem, len(orderIDs))
	for _, id := range orderIDs {
		out[id] = []domain.OrderItem{}
	}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return out, nil
}
