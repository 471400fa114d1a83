// Package types contains small generic types shared across doorphone packages.
package types

import (
	"iter"
	"slices"
	"sync"
)

// Callbacks is a registry of subscriber callbacks.
// Callbacks are invoked in subscription order. The zero value is ready to use.
type Callbacks[T any] struct {
	mu     sync.RWMutex
	subs   []callback[T]
	nextID uint64
}

type callback[T any] struct {
	id uint64
	fn T
}

// Len returns the number of registered callbacks.
func (c *Callbacks[T]) Len() int {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// Add registers fn and returns a function that removes it.
// The remove function is idempotent.
func (c *Callbacks[T]) Add(fn T) (remove func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, callback[T]{id, fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.subs = slices.DeleteFunc(c.subs, func(cb callback[T]) bool { return cb.id == id })
			c.mu.Unlock()
		})
	}
}

// All iterates over a snapshot of registered callbacks,
// so callbacks may add or remove subscriptions while being iterated.
func (c *Callbacks[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if c == nil {
			return
		}

		c.mu.RLock()
		fns := make([]T, len(c.subs))
		for i, cb := range c.subs {
			fns[i] = cb.fn
		}
		c.mu.RUnlock()

		for _, fn := range fns {
			if !yield(fn) {
				return
			}
		}
	}
}
