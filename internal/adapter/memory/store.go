// Package memory is an in-process implementation of the repositories. It
// backs the test suites and `database.driver: memory` local runs.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

// DefaultProductTypes mirrors the product_type enum of schema.sql.
var DefaultProductTypes = []string{"HAMBURGUESA", "PERRO", "SALCHIPAPA", "BEBIDA", "ADICION", "OTRO"}

type state struct {
	nextID     int64
	products   map[int64]domain.Product
	tables     map[int64]domain.Table
	orders     map[int64]domain.Order
	items      map[int64]domain.OrderItem
	tempOrders map[int64]domain.TempOrder
	users      map[int64]domain.User
	outbox     []domain.Event
	settings   domain.Settings
}

func (s *state) clone() *state {
	cp := *s
	cp.products = maps.Clone(s.products)
	cp.tables = maps.Clone(s.tables)
	cp.orders = maps.Clone(s.orders)
	cp.items = maps.Clone(s.items)
	cp.tempOrders = maps.Clone(s.tempOrders)
	cp.users = maps.Clone(s.users)
	cp.outbox = slices.Clone(s.outbox)
	return &cp
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store holds every table in maps behind one mutex. A transaction holds the
// mutex for its whole duration and restores a snapshot on error.
type Store struct {
	mu           sync.Mutex
	st           *state
	productTypes []string
}

func NewStore() *Store {
	return &Store{
		st: &state{
			products:   make(map[int64]domain.Product),
			tables:     make(map[int64]domain.Table),
			orders:     make(map[int64]domain.Order),
			items:      make(map[int64]domain.OrderItem),
			tempOrders: make(map[int64]domain.TempOrder),
			users:      make(map[int64]domain.User),
			settings:   domain.Settings{DeliveryEnabled: true},
		},
		productTypes: DefaultProductTypes,
	}
}

// Repositories wires every repository of this store.
func (s *Store) Repositories() interfaces.Store {
	return interfaces.Store{
		Tx:         &memoryTx{store: s},
		Products:   &productRepo{store: s},
		Tables:     &tableRepo{store: s},
		Orders:     &orderRepo{store: s},
		TempOrders: &tempOrderRepo{store: s},
		Settings:   &settingsRepo{store: s},
		Users:      &userRepo{store: s},
		Outbox:     &outboxRepo{store: s},
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	b, _ := ctx.Value(txKey{}).(bool)
	return b
}

func (s *Store) lock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Lock()
	}
}

func (s *Store) unlock(ctx context.Context) {
	if !inTx(ctx) {
		s.mu.Unlock()
	}
}

type memoryTx struct{ store *Store }

func (tx *memoryTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	backup := tx.store.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		tx.store.st = backup
		return err
	}
	return nil
}

// PutProduct stores p with its own id. Tests use it to seed a catalog.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
	if p.ID > s.st.nextID {
		s.st.nextID = p.ID
	}
}

// PutTable stores t with its own id.
func (s *Store) PutTable(t domain.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.tables[t.ID] = t
	if t.ID > s.st.nextID {
		s.st.nextID = t.ID
	}
}
