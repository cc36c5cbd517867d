package domain

type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "OPEN"
	OrderStatusClosed OrderStatus = "CLOSED"
)

// TempOrderStatus is the lifecycle of a customer-submitted delivery order.
// pendiente is the only non-terminal state.
type TempOrderStatus string

const (
	TempOrderPending  TempOrderStatus = "pendiente"
	TempOrderInvoiced TempOrderStatus = "facturado"
	TempOrderRejected TempOrderStatus = "rechazado"
)

// CanTransitionTo reports whether the temporary order may move to next.
func (s TempOrderStatus) CanTransitionTo(next TempOrderStatus) bool {
	validTransitions := map[TempOrderStatus][]TempOrderStatus{
		TempOrderPending:  {TempOrderInvoiced, TempOrderRejected},
		TempOrderInvoiced: {},
		TempOrderRejected: {},
	}

	for _, s := range validTransitions[s] {
		if s == next {
			return true
		}
	}
	return false
}
