package temporder

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/adapter/memory"
	"github.com/YelzhanWeb/pos/internal/adapter/realtime"
	"github.com/YelzhanWeb/pos/internal/app/outbox"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deliveryTable = 57

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// syncSignal dispatches immediately so tests observe delivery without
// running the background loop.
type syncSignal struct {
	t          *testing.T
	dispatcher *outbox.Dispatcher
}

func (s syncSignal) Wake() {
	_, err := s.dispatcher.DispatchPending(context.Background())
	require.NoError(s.t, err)
}

type session struct {
	id     string
	mu     sync.Mutex
	frames []realtime.Frame
}

func (s *session) ID() string { return s.id }

func (s *session) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	var f realtime.Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

func (s *session) Close() {}

func (s *session) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.frames))
	for i, f := range s.frames {
		names[i] = f.Event
	}
	return names
}

type fixture struct {
	store   *memory.Store
	repos   interfaces.Store
	hub     *realtime.Hub
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	hub := realtime.NewHub(realtime.NewRegistry(), logger.Discard())
	dispatcher := outbox.NewDispatcher(repos, hub, logger.Discard(), 100, time.Second)

	store.PutProduct(domain.Product{ID: 5, Name: "Perro sencillo", Price: decimal.NewFromInt(10), Type: "PERRO"})

	svc := NewService(repos, syncSignal{t: t, dispatcher: dispatcher},
		fixedClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}, logger.Discard(), deliveryTable)

	return &fixture{store: store, repos: repos, hub: hub, service: svc}
}

func (f *fixture) connect(t *testing.T, id, phone string) *session {
	t.Helper()
	s := &session{id: id}
	f.hub.Register(s)
	if phone != "" {
		f.hub.HandleMessage(id, []byte(`{"event":"registraCliente","data":"`+phone+`"}`))
	}
	return s
}

func (f *fixture) submit(t *testing.T, body string) *domain.TempOrder {
	t.Helper()
	cmd, err := DecodeSubmission([]byte(body))
	require.NoError(t, err)
	tmp, err := f.service.Submit(context.Background(), cmd)
	require.NoError(t, err)
	return tmp
}

const anaOrder = `{"nombre_cliente":"Ana","telefono_cliente":"555","detalles_pedido":[{"id":5,"price":10,"quantity":2}]}`

func TestSubmitThenApprove_PromotesSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.connect(t, "staff", "")

	tmp := f.submit(t, anaOrder)
	assert.Equal(t, domain.TempOrderPending, tmp.Status)
	assert.True(t, tmp.Trusted)

	lines, err := tmp.Lines()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(domain.SnapshotTotal(lines)))

	orderID, err := f.service.Approve(ctx, tmp.ID)
	require.NoError(t, err)

	order, err := f.repos.Orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(deliveryTable), order.TableID)
	assert.Equal(t, domain.OrderStatusOpen, order.Status)
	assert.True(t, decimal.NewFromInt(20).Equal(order.Total))
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(5), order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(order.Items[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(20).Equal(order.Items[0].Subtotal))

	stored, err := f.repos.TempOrders.Get(ctx, tmp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TempOrderInvoiced, stored.Status)

	assert.Equal(t, []string{domain.EventTempOrderCreated, domain.EventTempOrderApproved}, staff.events())
}

func TestSubmit_StoresDetailsVerbatim(t *testing.T) {
	f := newFixture(t)

	details := `[ {"id": 5, "price": 10, "quantity": 2, "nota": "sin cebolla"} ]`
	tmp := f.submit(t, `{"nombre_cliente":"Ana","detalles_pedido":`+details+`}`)

	stored, err := f.repos.TempOrders.Get(context.Background(), tmp.ID)
	require.NoError(t, err)
	assert.Equal(t, details, string(stored.Details))
	assert.Equal(t, "", stored.Phone)
	assert.True(t, stored.Total.IsZero())
}

func TestSubmit_BroadcastCarriesRecord(t *testing.T) {
	f := newFixture(t)
	staff := f.connect(t, "staff", "")

	tmp := f.submit(t, anaOrder)

	require.Len(t, staff.frames, 1)
	var payload struct {
		Data domain.TempOrder `json:"data"`
	}
	require.NoError(t, json.Unmarshal(staff.frames[0].Data, &payload))
	assert.Equal(t, tmp.ID, payload.Data.ID)
	assert.Equal(t, "Ana", payload.Data.CustomerName)
	assert.False(t, payload.Data.CreatedAt.IsZero())
}

func TestApprove_IgnoresLaterCatalogPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmp := f.submit(t, anaOrder)
	f.store.PutProduct(domain.Product{ID: 5, Name: "Perro sencillo", Price: decimal.NewFromInt(99), Type: "PERRO"})

	orderID, err := f.service.Approve(ctx, tmp.ID)
	require.NoError(t, err)

	order, err := f.repos.Orders.Get(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(order.Total))
	assert.True(t, decimal.NewFromInt(10).Equal(order.Items[0].UnitPrice))
}

func TestApprove_DefaultsMissingPriceAndQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmp := f.submit(t, `{"nombre_cliente":"Ana","detalles_pedido":[{"id":5}]}`)

	orderID, err := f.service.Approve(ctx, tmp.ID)
	require.NoError(t, err)

	order, err := f.repos.Orders.Get(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.True(t, order.Items[0].UnitPrice.IsZero())
	assert.True(t, order.Total.IsZero())
}

func TestTerminalOrdersCannotTransitionAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	approved := f.submit(t, anaOrder)
	_, err := f.service.Approve(ctx, approved.ID)
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, approved.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.service.Reject(ctx, approved.ID), domain.ErrNotFound)

	rejected := f.submit(t, anaOrder)
	require.NoError(t, f.service.Reject(ctx, rejected.ID))
	assert.ErrorIs(t, f.service.Reject(ctx, rejected.ID), domain.ErrNotFound)
	_, err = f.service.Approve(ctx, rejected.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	orders, err := f.repos.Orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestApprove_UnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Approve(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.service.Reject(context.Background(), 404), domain.ErrNotFound)
}

func TestApprove_ConcurrentCallsPromoteOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmp := f.submit(t, anaOrder)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.Approve(ctx, tmp.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	orders, err := f.repos.Orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestApprove_RollsBackWhenPromotionFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.connect(t, "staff", "")

	// Product 6 is not in the catalog, so inserting the item fails.
	tmp := f.submit(t, `{"nombre_cliente":"Ana","detalles_pedido":[{"id":5,"price":10},{"id":6,"price":3}]}`)

	_, err := f.service.Approve(ctx, tmp.ID)
	require.Error(t, err)

	stored, err := f.repos.TempOrders.Get(ctx, tmp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TempOrderPending, stored.Status)

	orders, err := f.repos.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	assert.Equal(t, []string{domain.EventTempOrderCreated}, staff.events())
}

func TestReject_NotifiesOnlyTheCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tmp := f.submit(t, anaOrder)
	ana := f.connect(t, "s-555", "555")
	other := f.connect(t, "s-556", "556")

	require.NoError(t, f.service.Reject(ctx, tmp.ID))

	assert.Equal(t, []string{domain.EventTempOrderRejected}, ana.events())
	assert.JSONEq(t, `{"id":`+jsonInt(tmp.ID)+`}`, string(ana.frames[0].Data))
	assert.Empty(t, other.events())

	stored, err := f.repos.TempOrders.Get(ctx, tmp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TempOrderRejected, stored.Status)
}

func TestReject_WithoutSessionIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.connect(t, "s-556", "556")

	tmp := f.submit(t, anaOrder)
	require.NoError(t, f.service.Reject(ctx, tmp.ID))

	assert.Equal(t, []string{domain.EventTempOrderCreated}, other.events())
}

func TestDeleteAndTrust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.submit(t, anaOrder)
	second := f.submit(t, anaOrder)

	status, err := f.service.VerifyPhone(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, domain.TrustStatus{Exists: true, Trusted: true}, status)

	require.NoError(t, f.service.SetTrusted(ctx, first.ID, false))
	status, err = f.service.VerifyPhone(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, domain.TrustStatus{Exists: true, Trusted: false}, status)

	require.NoError(t, f.service.Delete(ctx, second.ID))
	assert.ErrorIs(t, f.service.Delete(ctx, second.ID), domain.ErrNotFound)
	assert.ErrorIs(t, f.service.SetTrusted(ctx, second.ID, true), domain.ErrNotFound)

	all, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	status, err = f.service.VerifyPhone(ctx, "000")
	require.NoError(t, err)
	assert.False(t, status.Exists)
}

func TestListPending_OnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := f.submit(t, anaOrder)
	gone := f.submit(t, anaOrder)
	require.NoError(t, f.service.Reject(ctx, gone.ID))

	pending, err := f.service.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, kept.ID, pending[0].ID)

	all, err := f.service.ListForDelivery(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, gone.ID, all[0].ID, "newest first")
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
