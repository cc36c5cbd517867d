package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/adapter/memory"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSignal struct{ n int }

func (s *countingSignal) Wake() { s.n++ }

func newService(t *testing.T) (*Service, *memory.Store, *countingSignal) {
	t.Helper()
	store := memory.NewStore()
	signal := &countingSignal{}
	return NewService(store.Repositories(), signal, interfaces.SystemClock{}, logger.Discard()), store, signal
}

func eventNames(store *memory.Store) []string {
	var names []string
	for _, ev := range store.Events() {
		names = append(names, ev.Name)
	}
	return names
}

func TestCreateProduct(t *testing.T) {
	svc, store, signal := newService(t)

	p, err := svc.CreateProduct(context.Background(), domain.Product{Name: " Perro ", Price: decimal.NewFromInt(8000), Type: "PERRO"})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Perro", p.Name)
	assert.Equal(t, []string{domain.EventProductCreated}, eventNames(store))
	assert.Equal(t, 1, signal.n)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, domain.Product{Price: decimal.NewFromInt(1), Type: "PERRO"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateProduct(ctx, domain.Product{Name: "Perro", Price: decimal.Zero, Type: "PERRO"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateProduct(ctx, domain.Product{Name: "Perro", Price: decimal.NewFromInt(1), Type: "PIZZA"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, store.Events())
}

func TestUpdateProduct(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	store.PutProduct(domain.Product{ID: 1, Name: "Perro", Price: decimal.NewFromInt(10), Type: "PERRO", Image: "perro.png"})

	_, err := svc.UpdateProduct(ctx, domain.Product{ID: 1, Name: "Perro", Price: decimal.NewFromInt(12), Type: "PERRO"})
	assert.ErrorIs(t, err, domain.ErrValidation, "image is required on update")

	_, err = svc.UpdateProduct(ctx, domain.Product{ID: 2, Name: "Perro", Price: decimal.NewFromInt(12), Type: "PERRO", Image: "x.png"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := svc.UpdateProduct(ctx, domain.Product{ID: 1, Name: "Perro", Price: decimal.NewFromInt(12), Type: "PERRO", Image: "perro.png"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(12).Equal(p.Price))
	assert.Equal(t, []string{domain.EventProductUpdated}, eventNames(store))
}

func TestDeleteProduct_ReferencedIsConflict(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	store.PutProduct(domain.Product{ID: 5, Name: "Perro", Price: decimal.NewFromInt(10), Type: "PERRO"})
	store.PutProduct(domain.Product{ID: 6, Name: "Gaseosa", Price: decimal.NewFromInt(3), Type: "BEBIDA"})

	order, err := domain.NewOrder(57, []domain.OrderItem{{ProductID: 5, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Repositories().Orders.Create(ctx, order))

	assert.ErrorIs(t, svc.DeleteProduct(ctx, 5), domain.ErrConflict)
	assert.Empty(t, store.Events())

	require.NoError(t, svc.DeleteProduct(ctx, 6))
	assert.Equal(t, []string{domain.EventProductDeleted}, eventNames(store))

	assert.ErrorIs(t, svc.DeleteProduct(ctx, 6), domain.ErrNotFound)
	assert.Len(t, store.Events(), 1)
}

func TestTables(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateTable(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	table, err := svc.CreateTable(ctx, " Mesa 1 ")
	require.NoError(t, err)
	assert.Equal(t, "Mesa 1", table.Name)

	updated, err := svc.UpdateTable(ctx, table.ID, "Terraza")
	require.NoError(t, err)
	assert.Equal(t, "Terraza", updated.Name)

	_, err = svc.UpdateTable(ctx, 999, "Nada")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tables, err := svc.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Terraza", tables[0].Name)

	require.NoError(t, svc.DeleteTable(ctx, table.ID))
	assert.ErrorIs(t, svc.DeleteTable(ctx, table.ID), domain.ErrNotFound)

	assert.Equal(t, []string{domain.EventTableCreated, domain.EventTableUpdated, domain.EventTableDeleted}, eventNames(store))
}

func TestDeleteTable_WithOrdersIsConflict(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	store.PutTable(domain.Table{ID: 3, Name: "Mesa 3"})
	store.PutProduct(domain.Product{ID: 5, Name: "Perro", Price: decimal.NewFromInt(10), Type: "PERRO"})

	order, err := domain.NewOrder(3, []domain.OrderItem{{ProductID: 5, Quantity: 1}}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Repositories().Orders.Create(ctx, order))

	assert.ErrorIs(t, svc.DeleteTable(ctx, 3), domain.ErrConflict)
}

func TestSetDeliveryEnabled(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.DeliveryEnabled)

	require.NoError(t, svc.SetDeliveryEnabled(ctx, false))

	settings, err = svc.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.DeliveryEnabled)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventDeliveryToggled, events[0].Name)
	assert.JSONEq(t, `{"activo":false}`, string(events[0].Payload))
}

func TestProductTypes(t *testing.T) {
	svc, _, _ := newService(t)

	types, err := svc.ProductTypes(context.Background())
	require.NoError(t, err)
	assert.Contains(t, types, "HAMBURGUESA")
}
