package catalog

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/app/outbox"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

// Service manages products, tables and the configuracion row. Every
// successful mutation records exactly one event.
type Service struct {
	store  interfaces.Store
	signal interfaces.EventSignal
	clock  interfaces.Clock
	logger logger.Logger
}

func NewService(store interfaces.Store, signal interfaces.EventSignal, clock interfaces.Clock, logger logger.Logger) *Service {
	return &Service{
		store:  store,
		signal: signal,
		clock:  clock,
		logger: logger,
	}
}

// mutate runs fn in a transaction and wakes the dispatcher after commit.
func (s *Service) mutate(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	if err := s.store.Tx.WithinTx(ctx, fn); err != nil {
		s.logger.Debug(action+"_failed", err.Error(), logger.RequestID(ctx), nil)
		return err
	}
	s.signal.Wake()
	return nil
}

// Products

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.Products.List(ctx)
}

func (s *Service) ProductTypes(ctx context.Context) ([]string, error) {
	return s.store.Products.Types(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, "product_create", func(ctx context.Context) error {
		if err := s.store.Products.Create(ctx, &p); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventProductCreated, p, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product_created", fmt.Sprintf("Product %d created", p.ID), logger.RequestID(ctx), nil)
	return &p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := p.ValidateUpdate(); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, "product_update", func(ctx context.Context) error {
		if err := s.store.Products.Update(ctx, &p); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventProductUpdated, p, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct refuses to remove a product that any order item references.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.mutate(ctx, "product_delete", func(ctx context.Context) error {
		n, err := s.store.Products.CountOrderItems(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflict("product cannot be deleted because it is used in orders")
		}
		if err := s.store.Products.Delete(ctx, id); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventProductDeleted, map[string]int64{"id": id}, s.clock.Now())
	})
}

// Tables

func (s *Service) ListTables(ctx context.Context) ([]domain.Table, error) {
	return s.store.Tables.List(ctx)
}

func (s *Service) CreateTable(ctx context.Context, name string) (*domain.Table, error) {
	table, err := domain.NewTable(name)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, "table_create", func(ctx context.Context) error {
		if err := s.store.Tables.Create(ctx, table); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventTableCreated, table, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (s *Service) UpdateTable(ctx context.Context, id int64, name string) (*domain.Table, error) {
	table, err := domain.NewTable(name)
	if err != nil {
		return nil, err
	}
	table.ID = id

	err = s.mutate(ctx, "table_update", func(ctx context.Context) error {
		if err := s.store.Tables.Update(ctx, table); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventTableUpdated, table, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// DeleteTable refuses to remove a table that has orders.
func (s *Service) DeleteTable(ctx context.Context, id int64) error {
	return s.mutate(ctx, "table_delete", func(ctx context.Context) error {
		if _, err := s.store.Tables.Get(ctx, id); err != nil {
			return err
		}
		n, err := s.store.Tables.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflict("table cannot be deleted because it has orders")
		}
		if err := s.store.Tables.Delete(ctx, id); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventTableDeleted, map[string]int64{"id": id}, s.clock.Now())
	})
}

// Settings

func (s *Service) Settings(ctx context.Context) (*domain.Settings, error) {
	return s.store.Settings.Get(ctx)
}

func (s *Service) SetDeliveryEnabled(ctx context.Context, enabled bool) error {
	err := s.mutate(ctx, "settings_update", func(ctx context.Context) error {
		if err := s.store.Settings.SetDeliveryEnabled(ctx, enabled); err != nil {
			return err
		}
		return outbox.Record(ctx, s.store.Outbox, domain.EventDeliveryToggled, map[string]bool{"activo": enabled}, s.clock.Now())
	})
	if err != nil {
		return err
	}

	s.logger.Info("delivery_toggled", "Delivery intake switched", logger.RequestID(ctx), map[string]interface{}{"enabled": enabled})
	return nil
}
