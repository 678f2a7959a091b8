// Package store holds the shopper's client-side collections: cart,
// favorites, recently viewed products and the catalog cache. Every store
// is safe for concurrent use and reports each effective mutation, in
// order, to its subscribers.
package store

import (
	"errors"
	"fmt"
	"sync"
)

// Common errors returned by the stores
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidItem       = errors.New("item has no product id")
)

// InsufficientStockError reports a rejected cart mutation. The cart is left
// unchanged.
type InsufficientStockError struct {
	ProductID string
	Available int
	InCart    int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, in cart %d, requested %d",
		e.ProductID, e.Available, e.InCart, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Change carries a copy of a collection right after a mutation.
type Change[T any] struct {
	Key   string
	Items []T
}

// Empty reports whether the collection became empty.
func (c Change[T]) Empty() bool {
	return len(c.Items) == 0
}

// Listener receives changes synchronously, in mutation order. A listener
// must not mutate the store that called it.
type Listener[T any] func(Change[T])

type subscription[T any] struct {
	id int
	fn Listener[T]
}

type broadcaster[T any] struct {
	key string

	mu        sync.RWMutex
	listeners []subscription[T]
	nextID    int

	// delivery is taken before the store lock is released so that changes
	// reach listeners in the order the mutations happened.
	delivery sync.Mutex
}

func newBroadcaster[T any](key string) *broadcaster[T] {
	return &broadcaster[T]{key: key}
}

func (b *broadcaster[T]) subscribe(fn Listener[T]) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.listeners {
				if s.id == id {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// publish hands items to every listener. release unlocks the calling store
// once delivery order is secured.
func (b *broadcaster[T]) publish(release func(), items []T) {
	b.delivery.Lock()
	release()
	defer b.delivery.Unlock()

	b.mu.RLock()
	listeners := make([]subscription[T], len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	change := Change[T]{Key: b.key, Items: items}
	for _, s := range listeners {
		s.fn(change)
	}
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
