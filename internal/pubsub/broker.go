package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Broker fans events out to all active subscribers. Subscriptions live as
// long as their context; Publish never blocks, dropping events for
// subscribers that have fallen behind.
type Broker[T any] struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[int]chan Event[T]
	closed  bool
	bufSize int
}

// NewBroker creates a broker with the default per-subscriber buffer (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerBuffered[T](defaultBufferSize)
}

// NewBrokerBuffered creates a broker with a custom per-subscriber buffer size.
func NewBrokerBuffered[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:    make(map[int]chan Event[T]),
		bufSize: size,
	}
}

// Subscribe registers a new subscriber channel that stays open until ctx is
// cancelled or the broker closes. Subscribing to a closed broker returns an
// already-closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event[T], b.bufSize)
	b.subs[id] = ch

	go b.reapOnCancel(ctx, id)
	return ch
}

// reapOnCancel removes and closes the subscription once its context ends.
func (b *Broker[T]) reapOnCancel(ctx context.Context, id int) {
	<-ctx.Done()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber that has buffer room.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	event := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop instead of blocking the mutation path
		}
	}
}

// Close shuts the broker down and closes every subscriber channel. Safe to
// call more than once.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
