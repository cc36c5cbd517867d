package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a permanent order attached to a table (or to the delivery
// sentinel table id).
type Order struct {
	ID        int64           `json:"id"`
	TableID   int64           `json:"tableId"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Items     []OrderItem     `json:"items"`
}

// OrderItem is a line of an order. UnitPrice is captured when the item is
// inserted and never follows later catalog changes.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewOrder creates an open order for tableID with the given items and
// computes subtotals and the total.
func NewOrder(tableID int64, items []OrderItem, now time.Time) (*Order, error) {
	if tableID <= 0 {
		return nil, Validation("tableId is required")
	}
	if len(items) == 0 {
		return nil, Validation("order must contain at least 1 item")
	}

	order := &Order{
		TableID:   tableID,
		Status:    OrderStatusOpen,
		CreatedAt: now,
		Items:     items,
	}

	for i := range order.Items {
		if err := order.Items[i].Validate(); err != nil {
			return nil, err
		}
		order.Items[i].CalculateSubtotal()
	}
	order.CalculateTotal()

	return order, nil
}

// Validate applies the item rules shared by create and update.
func (it *OrderItem) Validate() error {
	if it.ProductID <= 0 {
		return Validation("productId is required")
	}
	if it.Quantity < 1 {
		return Validation("quantity must be at least 1")
	}
	if it.UnitPrice.IsNegative() {
		return Validation("unitPrice must not be negative")
	}
	return nil
}

func (it *OrderItem) CalculateSubtotal() {
	it.Subtotal = LineSubtotal(it.UnitPrice, it.Quantity)
}

// CalculateTotal sets Total to the sum of the item subtotals.
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.Total = total
}

func (o *Order) IsOpen() bool { return o.Status == OrderStatusOpen }

// Close moves the order to CLOSED. Closing is terminal.
func (o *Order) Close() error {
	if o.Status != OrderStatusOpen {
		return Conflict("order is already closed")
	}
	o.Status = OrderStatusClosed
	return nil
}
