package store

import "sync"

// Registration populates one slot of a module configuration. It runs when the
// owning module is compiled, never at declaration time.
type Registration func(cfg *Config, scope *ModuleScope) error

// Queue buffers registrations in declaration order until the owning module is
// compiled.
type Queue struct {
	mu    sync.Mutex
	items []Registration
}

// Enqueue appends cb. Nil callbacks are dropped.
func (q *Queue) Enqueue(cb Registration) {
	if cb == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, cb)
	q.mu.Unlock()
}

// DrainAll returns the buffered registrations in order and leaves the queue
// empty. Draining an empty queue returns nil.
func (q *Queue) DrainAll() []Registration {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.items
	q.items = nil
	return drained
}

// Len reports the number of pending registrations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
