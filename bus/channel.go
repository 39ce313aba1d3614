// Package bus provides typed publish/subscribe primitives used to wire
// simulation components together without a shared event framework.
package bus

import "sync"

// Subscription identifies a registered handler. Cancel is idempotent.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Cancel removes the handler. Later publishes no longer reach it.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

type handler[T any] struct {
	id   uint64
	fn   func(T)
	once bool
}

// Channel is a synchronous typed broadcast. Publish invokes every handler
// in subscription order on the caller's goroutine.
type Channel[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers []handler[T]
}

// NewChannel creates an empty channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Subscribe registers fn for every subsequent publish.
func (c *Channel[T]) Subscribe(fn func(T)) *Subscription {
	return c.add(fn, false)
}

// Once registers fn for the next publish only.
func (c *Channel[T]) Once(fn func(T)) *Subscription {
	return c.add(fn, true)
}

func (c *Channel[T]) add(fn func(T), once bool) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.handlers = append(c.handlers, handler[T]{id: id, fn: fn, once: once})
	return &Subscription{cancel: func() { c.remove(id) }}
}

func (c *Channel[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.handlers {
		if h.id == id {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

// Publish delivers v to all current handlers. Handlers may subscribe or
// cancel during delivery; those changes apply to the next publish.
func (c *Channel[T]) Publish(v T) {
	c.mu.Lock()
	snapshot := make([]handler[T], len(c.handlers))
	copy(snapshot, c.handlers)
	// One-shot handlers are detached before delivery so reentrant publishes skip them
	kept := c.handlers[:0]
	for _, h := range c.handlers {
		if !h.once {
			kept = append(kept, h)
		}
	}
	for i := len(kept); i < len(c.handlers); i++ {
		c.handlers[i] = handler[T]{}
	}
	c.handlers = kept
	c.mu.Unlock()

	for _, h := range snapshot {
		h.fn(v)
	}
}

// Len returns the number of registered handlers.
func (c *Channel[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}
