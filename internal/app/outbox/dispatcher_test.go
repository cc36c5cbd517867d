package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/adapter/memory"
	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	names  []string
	failAt int
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.Event) error {
	if p.failAt > 0 && len(p.names)+1 == p.failAt {
		return errors.New("broker down")
	}
	p.names = append(p.names, ev.Name)
	return nil
}

func appendEvents(t *testing.T, store *memory.Store, names ...string) {
	t.Helper()
	repos := store.Repositories()
	for _, name := range names {
		ev, err := domain.NewEvent(name, map[string]int{"id": 1}, time.Now())
		require.NoError(t, err)
		require.NoError(t, repos.Outbox.Append(context.Background(), &ev))
	}
}

func TestDispatchPending_PublishesInOrderAndMarks(t *testing.T) {
	store := memory.NewStore()
	appendEvents(t, store, domain.EventTableCreated, domain.EventTableUpdated, domain.EventTableDeleted)

	pub := &recordingPublisher{}
	d := NewDispatcher(store.Repositories(), pub, logger.Discard(), 10, time.Second)

	n, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{domain.EventTableCreated, domain.EventTableUpdated, domain.EventTableDeleted}, pub.names)

	n, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "dispatched events are not published twice")
}

func TestDispatchPending_FailureLeavesRestPending(t *testing.T) {
	store := memory.NewStore()
	appendEvents(t, store, domain.EventTableCreated, domain.EventTableUpdated, domain.EventTableDeleted)

	pub := &recordingPublisher{failAt: 2}
	d := NewDispatcher(store.Repositories(), pub, logger.Discard(), 10, time.Second)

	n, err := d.DispatchPending(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, n)

	pub.failAt = 0
	n, err = d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{domain.EventTableCreated, domain.EventTableUpdated, domain.EventTableDeleted}, pub.names)
}

func TestDispatchPending_RespectsBatchSize(t *testing.T) {
	store := memory.NewStore()
	appendEvents(t, store, domain.EventTableCreated, domain.EventTableUpdated, domain.EventTableDeleted)

	pub := &recordingPublisher{}
	d := NewDispatcher(store.Repositories(), pub, logger.Discard(), 2, time.Second)

	n, err := d.DispatchPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	d.drain(context.Background())
	assert.Len(t, pub.names, 3)
}

func TestRun_WakeTriggersDispatch(t *testing.T) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	d := NewDispatcher(store.Repositories(), pub, logger.Discard(), 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	appendEvents(t, store, domain.EventDeliveryToggled)
	d.Wake()
	d.Wake()

	require.Eventually(t, func() bool {
		events := store.Events()
		return len(events) == 1 && events[0].DispatchedAt != nil
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
