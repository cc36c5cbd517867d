package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TempOrder is a delivery order submitted by a customer that staff still has
// to approve or reject. Details holds the submitted line items verbatim so
// later catalog changes never alter a historical order.
type TempOrder struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"nombre_cliente"`
	Address      string          `json:"direccion_cliente"`
	Phone        string          `json:"telefono_cliente"`
	Details      json.RawMessage `json:"detalles_pedido"`
	Total        decimal.Decimal `json:"total"`
	Status       TempOrderStatus `json:"estado"`
	Trusted      bool            `json:"confiable"`
	CreatedAt    time.Time       `json:"creado_en"`
}

// SnapshotLine is one element of TempOrder.Details. Price and Quantity may
// be absent in the submitted payload; see UnitPrice and Qty for defaults.
type SnapshotLine struct {
	ProductID int64            `json:"id"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
}

// UnmarshalJSON accepts integral numbers in any JSON spelling, so 5 and 5.0
// both name product 5.
func (l *SnapshotLine) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID       decimal.Decimal  `json:"id"`
		Price    *decimal.Decimal `json:"price"`
		Quantity *decimal.Decimal `json:"quantity"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if !aux.ID.IsInteger() {
		return fmt.Errorf("id %s is not an integer", aux.ID)
	}

	line := SnapshotLine{ProductID: aux.ID.IntPart(), Price: aux.Price}
	if aux.Quantity != nil {
		if !aux.Quantity.IsInteger() {
			return fmt.Errorf("quantity %s is not an integer", aux.Quantity)
		}
		q := int(aux.Quantity.IntPart())
		line.Quantity = &q
	}
	*l = line
	return nil
}

func (l SnapshotLine) UnitPrice() decimal.Decimal {
	if l.Price == nil {
		return decimal.Zero
	}
	return *l.Price
}

func (l SnapshotLine) Qty() int {
	if l.Quantity == nil || *l.Quantity == 0 {
		return 1
	}
	return *l.Quantity
}

// NewTempOrder builds a pending temporary order. details must be the raw
// JSON array exactly as submitted.
func NewTempOrder(name, address, phone string, details json.RawMessage, total decimal.Decimal, now time.Time) (*TempOrder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Validation("nombre_cliente is required")
	}

	t := &TempOrder{
		CustomerName: name,
		Address:      address,
		Phone:        phone,
		Details:      details,
		Total:        total,
		Status:       TempOrderPending,
		Trusted:      true,
		CreatedAt:    now,
	}

	lines, err := t.Lines()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, Validation("detalles_pedido must contain at least 1 item")
	}

	return t, nil
}

// Lines decodes the stored snapshot.
func (t *TempOrder) Lines() ([]SnapshotLine, error) {
	var lines []SnapshotLine
	if err := json.Unmarshal(t.Details, &lines); err != nil {
		return nil, Validation("detalles_pedido must be an array of items")
	}
	return lines, nil
}

// SnapshotTotal is the authoritative total of a snapshot: Σ price × quantity.
func SnapshotTotal(lines []SnapshotLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineSubtotal(l.UnitPrice(), l.Qty()))
	}
	return total
}

// Promote builds the permanent order for an approved temporary order. The
// total and every unit price come from the snapshot, never from the claimed
// total or the live catalog.
func (t *TempOrder) Promote(deliveryTableID int64, now time.Time) (*Order, error) {
	lines, err := t.Lines()
	if err != nil {
		return nil, err
	}

	items := make([]OrderItem, len(lines))
	for i, l := range lines {
		items[i] = OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Qty(),
			UnitPrice: l.UnitPrice(),
		}
	}

	order, err := NewOrder(deliveryTableID, items, now)
	if err != nil {
		return nil, err
	}
	order.Total = SnapshotTotal(lines)
	return order, nil
}

// TrustStatus is the answer to a trust lookup by phone.
type TrustStatus struct {
	Exists  bool `json:"existe"`
	Trusted bool `json:"confiable"`
}
