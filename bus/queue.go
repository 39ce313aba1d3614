package bus

import "sync"

// Queue is a goroutine-safe FIFO. Producers Push from any goroutine;
// the owning loop drains it once per tick.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// Push appends an item and returns immediately.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
}

// Drain returns all queued items in push order and empties the queue.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
