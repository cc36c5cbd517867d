package temporder

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/app/outbox"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
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

// Submit stores a pending order and records nuevoPedidoTemp with the full
// record. Nothing is broadcast unless the transaction commits.
func (s *Service) Submit(ctx context.Context, cmd interfaces.SubmitTempOrderCommand) (*domain.TempOrder, error) {
	now := s.clock.Now()

	tmp, err := domain.NewTempOrder(cmd.CustomerName, cmd.Address, cmd.Phone, cmd.Details, cmd.Total, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.TempOrders.Create(ctx, tmp); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventTempOrderCreated, map[string]any{"data": tmp}, now)
	})
	if err != nil {
		s.logger.Error("temp_order_submit_failed", "Failed to store temporary order", logger.RequestID(ctx), nil, err)
		return nil, err
	}

	s.logger.Debug("temp_order_received", "Temporary order stored", logger.RequestID(ctx), map[string]interface{}{
		"temp_order_id": tmp.ID,
	})
	s.signal.Wake()
	return tmp, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.TempOrder, error) {
	return s.store.TempOrders.List(ctx, nil)
}

func (s *Service) ListPending(ctx context.Context) ([]domain.TempOrder, error) {
	pending := domain.TempOrderPending
	return s.store.TempOrders.List(ctx, &pending)
}

// ListForDelivery is the staff view: every record with its trust flag.
func (s *Service) ListForDelivery(ctx context.Context) ([]domain.TempOrder, error) {
	return s.store.TempOrders.List(ctx, nil)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.TempOrders.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("temp_order_deleted", fmt.Sprintf("Temporary order %d deleted", id), logger.RequestID(ctx), nil)
	return nil
}

func (s *Service) SetTrusted(ctx context.Context, id int64, trusted bool) error {
	return s.store.TempOrders.SetTrusted(ctx, id, trusted)
}

func (s *Service) VerifyPhone(ctx context.Context, phone string) (domain.TrustStatus, error) {
	return s.store.TempOrders.TrustByPhone(ctx, phone)
}

// Reject moves a pending order to rechazado and records a rejection event
// for the customer's phone only.
func (s *Service) Reject(ctx context.Context, id int64) error {
	now := s.clock.Now()

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		tmp, err := s.store.TempOrders.Transition(ctx, id, domain.TempOrderPending, domain.TempOrderRejected)
		if err != nil {
			return err
		}
		if tmp.Phone == "" {
			return nil
		}
		return outbox.RecordTargeted(ctx, s.store.Outbox, domain.EventTempOrderRejected, tmp.Phone, map[string]int64{"id": id}, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info("temp_order_rejected", fmt.Sprintf("Temporary order %d rejected", id), logger.RequestID(ctx), nil)
	s.signal.Wake()
	return nil
}

// Approve promotes a pending order into an open order on the delivery table.
// The status change, the order, its items and the event commit together.
func (s *Service) Approve(ctx context.Context, id int64) (int64, error) {
	now := s.clock.Now()
	var orderID int64

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		tmp, err := s.store.TempOrders.Transition(ctx, id, domain.TempOrderPending, domain.TempOrderInvoiced)
		if err != nil {
			return err
		}

		order, err := tmp.Promote(s.deliveryTableID, now)
		if err != nil {
			return err
		}
		if err := s.store.Orders.Create(ctx, order); err != nil {
			return err
		}
		orderID = order.ID

		return outbox.Record(ctx, s.store.Outbox, domain.EventTempOrderApproved, map[string]int64{"id": id}, now)
	})
	if err != nil {
		s.logger.Error("temp_order_approve_failed", fmt.Sprintf("Failed to approve temporary order %d", id),
			logger.RequestID(ctx), nil, err)
		return 0, err
	}

	s.logger.Info("temp_order_approved", fmt.Sprintf("Temporary order %d approved", id), logger.RequestID(ctx),
		map[string]interface{}{"order_id": orderID})
	s.signal.Wake()
	return orderID, nil
}
