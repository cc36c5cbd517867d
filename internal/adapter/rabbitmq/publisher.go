package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeKind is fanout: every API instance gets every event.
const ExchangeKind = "fanout"

type publisher struct {
	conn     Connection
	exchange string

	mu   sync.Mutex
	ch   Channel
	acks <-chan amqp.Confirmation
}

func NewPublisher(conn Connection, exchange string) interfaces.EventPublisher {
	return &publisher{conn: conn, exchange: exchange}
}

// Publish sends ev to the exchange and waits for the broker confirm. Calls
// are serialized so confirms line up with publishes.
func (p *publisher) Publish(ctx context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = ch.Publish(ctx, p.exchange, ev.Name, amqp.Publishing{
		DeliveryMode: amqp.Transient,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Type:         ev.Name,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("failed to publish event %s: %w", ev.Name, err)
	}

	select {
	case conf, ok := <-p.acks:
		if !ok {
			p.reset()
			return errors.New("channel closed before publish confirm")
		}
		if !conf.Ack {
			return fmt.Errorf("broker nacked event %s", ev.Name)
		}
		return nil
	case <-ctx.Done():
		p.reset()
		return ctx.Err()
	}
}

// channel lazily opens a confirm-mode channel with the exchange declared.
func (p *publisher) channel() (Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	p.ch = ch
	p.acks = ch.NotifyPublish()
	return ch, nil
}

func (p *publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = nil
	p.acks = nil
}
