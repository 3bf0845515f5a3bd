// Package events provides a simple publish-subscribe event bus for SSE
// delivery and the hardware display mirror.
package events

import "sync"

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe event bus.
// Subscribers that are slow to consume events will have events dropped rather
// than blocking publishers. The most recent event is replayed to every new
// subscriber so late joiners start from the current value.
type Bus[T any] struct {
	mu     sync.Mutex
	subs   map[string]chan T
	last   T
	hasVal bool
}

// NewBus creates a new event bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{
		subs: make(map[string]chan T),
	}
}

// Subscribe creates a new subscription with the given ID.
// The returned channel will receive updates, starting with the last
// published one if any. Call Unsubscribe when done to clean up.
// Subscribing again with a live ID replaces (and closes) the old channel.
func (b *Bus[T]) Subscribe(id string) <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.subs[id]; ok {
		close(old)
	}
	ch := make(chan T, subBufferSize)
	if b.hasVal {
		ch <- b.last
	}
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends an update to all subscribers.
// If a subscriber's channel is full, the event is dropped (non-blocking).
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last, b.hasVal = v, true
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			// Drop if subscriber is slow
		}
	}
}

// Last returns the most recently published value.
func (b *Bus[T]) Last() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasVal
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close unsubscribes everyone. Publishing after Close is harmless.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
