package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/interfaces"
)

// Dispatcher publishes committed outbox events. It runs when woken after a
// commit and on every poll tick, so events appended by other processes are
// picked up as well.
type Dispatcher struct {
	store        interfaces.Store
	publisher    interfaces.EventPublisher
	logger       logger.Logger
	batchSize    int
	pollInterval time.Duration
	wake         chan struct{}
}

func NewDispatcher(
	store interfaces.Store,
	publisher interfaces.EventPublisher,
	logger logger.Logger,
	batchSize int,
	pollInterval time.Duration,
) *Dispatcher {
	return &Dispatcher{
		store:        store,
		publisher:    publisher,
		logger:       logger,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		wake:         make(chan struct{}, 1),
	}
}

// Wake implements interfaces.EventSignal. It never blocks.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run dispatches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.logger.Info("dispatcher_started", "Outbox dispatcher started", "", map[string]interface{}{
		"batch_size":    d.batchSize,
		"poll_interval": d.pollInterval.String(),
	})

	for {
		d.drain(ctx)

		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher_stopped", "Outbox dispatcher stopped", "", nil)
			return
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// drain keeps dispatching while batches come back full.
func (d *Dispatcher) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := d.DispatchPending(ctx)
		if err != nil {
			d.logger.Error("dispatch_failed", "Failed to dispatch outbox events", "", map[string]interface{}{"dispatched": n}, err)
			return
		}
		if n < d.batchSize {
			return
		}
	}
}

// DispatchPending runs one pass: claim a batch, publish in id order, mark
// what was published. A publish failure ends the pass; the remaining events
// stay pending for the next one.
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	var (
		sent       int
		publishErr error
	)

	err := d.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := d.store.Outbox.ClaimPending(ctx, d.batchSize)
		if err != nil {
			return err
		}

		ids := make([]int64, 0, len(events))
		for _, ev := range events {
			if err := d.publisher.Publish(ctx, ev); err != nil {
				publishErr = fmt.Errorf("failed to publish event %d (%s): %w", ev.ID, ev.Name, err)
				break
			}
			ids = append(ids, ev.ID)
		}

		sent = len(ids)
		return d.store.Outbox.MarkDispatched(ctx, ids)
	})
	if err != nil {
		return 0, err
	}

	if sent > 0 {
		d.logger.Debug("events_dispatched", fmt.Sprintf("Dispatched %d events", sent), "", nil)
	}
	return sent, publishErr
}
