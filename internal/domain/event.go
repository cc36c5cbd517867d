package domain

import (
	"encoding/json"
	"time"
)

// Realtime event names as seen by clients.
const (
	EventTempOrderCreated  = "nuevoPedidoTemp"
	EventTempOrderApproved = "pedidoAprobado"
	EventTempOrderRejected = "pedidoTemporalRechazado"

	EventDeliveryToggled = "estadoDomicilios"

	EventProductCreated = "producto_creado"
	EventProductUpdated = "producto_actualizado"
	EventProductDeleted = "producto_eliminado"

	EventTableCreated = "mesa_creada"
	EventTableUpdated = "mesa_actualizada"
	EventTableDeleted = "mesa_eliminada"

	EventOrderCreated     = "pedido_creado"
	EventOrderItemUpdated = "pedido_actualizado"
	EventOrderItemDeleted = "pedido_item_eliminado"
	EventOrderClosed      = "pedido_cerrado"
)

// Event is a domain event recorded in the outbox. An empty Target means
// broadcast to every session; otherwise Target is the customer phone whose
// session alone must receive it.
type Event struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Target       string          `json:"target,omitempty"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
	DispatchedAt *time.Time      `json:"dispatched_at,omitempty"`
}

// NewEvent marshals payload into a broadcast event.
func NewEvent(name string, payload any, now time.Time) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Payload: body, CreatedAt: now}, nil
}

// NewTargetedEvent marshals payload into an event for a single phone.
func NewTargetedEvent(name, phone string, payload any, now time.Time) (Event, error) {
	ev, err := NewEvent(name, payload, now)
	if err != nil {
		return Event{}, err
	}
	ev.Target = phone
	return ev, nil
}

func (e Event) IsTargeted() bool { return e.Target != "" }
