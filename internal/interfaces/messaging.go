package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/pos/internal/domain"
)

// EventPublisher delivers a committed domain event. The realtime hub
// implements it for local delivery; the RabbitMQ publisher fans events out
// to every API instance.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// EventSignal is poked after a transaction that appended outbox events
// commits, so delivery does not wait for the next poll.
type EventSignal interface {
	Wake()
}

// EventConsumer receives events from the backplane.
type EventConsumer interface {
	ConsumeEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(ctx context.Context, body []byte) error

// Clock lets tests control timestamps.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
