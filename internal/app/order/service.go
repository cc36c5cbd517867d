package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/app/outbox"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/shopspring/decimal"
)

type Service struct {
	store           interfaces.Store
	signal          interfaces.EventSignal
	clock           interfaces.Clock
	logger          logger.Logger
	deliveryTableID int64
}

func NewService(
	store interfaces.Store,
	signal interfaces.EventSignal,
	clock interfaces.Clock,
	logger logger.Logger,
	deliveryTableID int64,
) *Service {
	return &Service{
		store:           store,
		signal:          signal,
		clock:           clock,
		logger:          logger,
		deliveryTableID: deliveryTableID,
	}
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.store.Orders.List(ctx)
}

// OpenOrderForTable returns the newest open order of the table as a one
// element list, or an empty list.
func (s *Service) OpenOrderForTable(ctx context.Context, tableID int64) ([]domain.Order, error) {
	order, err := s.store.Orders.FindOpenByTable(ctx, tableID)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []domain.Order{*order}, nil
}

type orderCreatedPayload struct {
	OrderID int64              `json:"orderId"`
	TableID int64              `json:"tableId"`
	Total   decimal.Decimal    `json:"total"`
	Items   []domain.OrderItem `json:"items"`
	Status  domain.OrderStatus `json:"status"`
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	if cmd.TableID <= 0 || len(cmd.Items) == 0 {
		return nil, domain.Validation("incomplete data to create order")
	}

	// 1. Commands to domain items; quantity defaults to 1
	items := make([]domain.OrderItem, len(cmd.Items))
	for i, it := range cmd.Items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		items[i] = domain.OrderItem{
			ProductID: it.ProductID,
			Quantity:  qty,
			UnitPrice: it.Price,
		}
	}

	// 2. Validation and totals
	order, err := domain.NewOrder(cmd.TableID, items, s.clock.Now())
	if err != nil {
		s.logger.Debug("validation_failed", "Order validation failed", logger.RequestID(ctx), nil)
		return nil, err
	}

	// 3. Order, items and event in one transaction
	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if order.TableID != s.deliveryTableID {
			if _, err := s.store.Tables.Get(ctx, order.TableID); err != nil {
				return err
			}
		}
		for _, it := range order.Items {
			if _, err := s.store.Products.Get(ctx, it.ProductID); err != nil {
				return err
			}
		}
		if err := s.store.Orders.Create(ctx, order); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventOrderCreated, orderCreatedPayload{
			OrderID: order.ID,
			TableID: order.TableID,
			Total:   order.Total,
			Items:   order.Items,
			Status:  order.Status,
		}, s.clock.Now())
	})
	if err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", logger.RequestID(ctx), nil, err)
		return nil, err
	}

	s.logger.Info("order_created", fmt.Sprintf("Order %d created", order.ID), logger.RequestID(ctx), map[string]interface{}{
		"table_id": order.TableID,
		"total":    order.Total.String(),
	})
	s.signal.Wake()
	return order, nil
}

type itemUpdatedPayload struct {
	ItemID    int64           `json:"itemId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// UpdateItem replaces an item of an open order and recomputes the total.
func (s *Service) UpdateItem(ctx context.Context, cmd interfaces.UpdateOrderItemCommand) (*domain.OrderItem, error) {
	if cmd.ProductID <= 0 || cmd.Quantity <= 0 || !cmd.UnitPrice.IsPositive() {
		return nil, domain.Validation("productId, quantity and unitPrice are required")
	}

	var updated *domain.OrderItem
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.store.Orders.GetItem(ctx, cmd.ItemID)
		if err != nil {
			return err
		}
		if err := s.requireOpen(ctx, item.OrderID); err != nil {
			return err
		}
		if _, err := s.store.Products.Get(ctx, cmd.ProductID); err != nil {
			return err
		}

		item.ProductID = cmd.ProductID
		item.Quantity = cmd.Quantity
		item.UnitPrice = cmd.UnitPrice
		item.CalculateSubtotal()
		if err := s.store.Orders.UpdateItem(ctx, item); err != nil {
			return err
		}
		if err := s.recalculate(ctx, item.OrderID); err != nil {
			return err
		}
		updated = item

		return outbox.Record(ctx, s.store.Outbox, domain.EventOrderItemUpdated, itemUpdatedPayload{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		}, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.signal.Wake()
	return updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, itemID int64) error {
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.store.Orders.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := s.requireOpen(ctx, item.OrderID); err != nil {
			return err
		}
		if err := s.store.Orders.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		if err := s.recalculate(ctx, item.OrderID); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventOrderItemDeleted, map[string]int64{"itemId": itemID}, s.clock.Now())
	})
	if err != nil {
		return err
	}

	s.signal.Wake()
	return nil
}

func (s *Service) CloseOrder(ctx context.Context, id int64) error {
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.store.Orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Close(); err != nil {
			return err
		}
		if err := s.store.Orders.UpdateStatus(ctx, id, order.Status); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventOrderClosed, map[string]int64{"id": id}, s.clock.Now())
	})
	if err != nil {
		return err
	}

	s.logger.Info("order_closed", fmt.Sprintf("Order %d closed", id), logger.RequestID(ctx), nil)
	s.signal.Wake()
	return nil
}

func (s *Service) requireOpen(ctx context.Context, orderID int64) error {
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsOpen() {
		return domain.Conflict("order is closed")
	}
	return nil
}

// recalculate sets the order total to the sum of its current items.
func (s *Service) recalculate(ctx context.Context, orderID int64) error {
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	order.CalculateTotal()
	return s.store.Orders.UpdateTotal(ctx, orderID, order)
}
