package bus

import "sync"

// Value is an observable value. Subscribers see every change made by Set.
type Value[T comparable] struct {
	mu      sync.RWMutex
	v       T
	changed Channel[T]
}

// NewValue creates a Value holding initial.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{v: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Set stores x and notifies subscribers when it differs from the current value.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	if v.v == x {
		v.mu.Unlock()
		return
	}
	v.v = x
	v.mu.Unlock()
	v.changed.Publish(x)
}

// Update applies fn to the current value and stores the result.
// Returns the new value.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	old := v.v
	v.v = fn(old)
	x := v.v
	v.mu.Unlock()
	if x != old {
		v.changed.Publish(x)
	}
	return x
}

// Subscribe registers fn for subsequent changes.
func (v *Value[T]) Subscribe(fn func(T)) *Subscription {
	return v.changed.Subscribe(fn)
}
