// Package bus decouples the source connection from the bridge orchestrator:
// the reader goroutine publishes notifications, the orchestrator consumes
// them and spawns independent units of work.
package bus

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBusClosed is returned when publishing to a closed Bus.
var ErrBusClosed = errors.New("notification bus closed")

type Bus struct {
	inbound chan Notification
	done    chan struct{}
	closed  atomic.Bool
}

func NewBus() *Bus {
	return &Bus{
		inbound: make(chan Notification, 100),
		done:    make(chan struct{}),
	}
}

func (b *Bus) Publish(ctx context.Context, n Notification) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.inbound <- n:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) Consume(ctx context.Context) (Notification, bool) {
	select {
	case n, ok := <-b.inbound:
		return n, ok
	case <-b.done:
		return Notification{}, false
	case <-ctx.Done():
		return Notification{}, false
	}
}

func (b *Bus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
}
