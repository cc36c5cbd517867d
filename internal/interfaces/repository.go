package interfaces

import (
	"context"

	"github.com/YelzhanWeb/pos/internal/domain"
)

// Transactor runs fn as one unit of work. Repository calls made with the
// ctx passed to fn join the transaction; a non-nil error rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories return domain.ErrNotFound (wrapped) when the entity is absent.

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Types(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	CountOrderItems(ctx context.Context, productID int64) (int, error)
}

type TableRepository interface {
	List(ctx context.Context) ([]domain.Table, error)
	Get(ctx context.Context, id int64) (*domain.Table, error)
	Create(ctx context.Context, t *domain.Table) error
	Update(ctx context.Context, t *domain.Table) error
	Delete(ctx context.Context, id int64) error
	CountOrders(ctx context.Context, tableID int64) (int, error)
}

type OrderRepository interface {
	// Create inserts the order and all of its items.
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
	// List returns every order newest first, items included.
	List(ctx context.Context) ([]domain.Order, error)
	// FindOpenByTable returns the newest open order of a table.
	FindOpenByTable(ctx context.Context, tableID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	UpdateTotal(ctx context.Context, id int64, o *domain.Order) error

	GetItem(ctx context.Context, itemID int64) (*domain.OrderItem, error)
	UpdateItem(ctx context.Context, item *domain.OrderItem) error
	DeleteItem(ctx context.Context, itemID int64) error
}

type TempOrderRepository interface {
	Create(ctx context.Context, t *domain.TempOrder) error
	Get(ctx context.Context, id int64) (*domain.TempOrder, error)
	// List returns records newest first; a nil status means all of them.
	List(ctx context.Context, status *domain.TempOrderStatus) ([]domain.TempOrder, error)
	Delete(ctx context.Context, id int64) error
	SetTrusted(ctx context.Context, id int64, trusted bool) error
	// TrustByPhone reports whether any record exists for phone and the least
	// trusted flag among them.
	TrustByPhone(ctx context.Context, phone string) (domain.TrustStatus, error)
	// Transition atomically moves a record from one status to another and
	// returns the updated record. It returns domain.ErrNotFound when no
	// record with that id is currently in status from.
	Transition(ctx context.Context, id int64, from, to domain.TempOrderStatus) (*domain.TempOrder, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	SetDeliveryEnabled(ctx context.Context, enabled bool) error
}

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type OutboxRepository interface {
	Append(ctx context.Context, ev *domain.Event) error
	// ClaimPending returns up to limit undispatched events in id order. It
	// must be called inside a transaction; claimed rows stay locked until
	// the transaction ends.
	ClaimPending(ctx context.Context, limit int) ([]domain.Event, error)
	MarkDispatched(ctx context.Context, ids []int64) error
}

// Store groups every repository of one backend.
type Store struct {
	Tx         Transactor
	Products   ProductRepository
	Tables     TableRepository
	Orders     OrderRepository
	TempOrders TempOrderRepository
	Settings   SettingsRepository
	Users      UserRepository
	Outbox     OutboxRepository
}
