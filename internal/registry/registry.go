// Package registry tracks live connections and their outbound frame queues.
// It is one of the two shared mutable structures in the system (the other
// being internal/distribution's group map) and is safe under concurrent
// Add/Remove/Snapshot calls.
package registry

import (
	"sync"
	"sync/atomic"
)

// ID is a dense, monotonically increasing connection identifier, unique for
// the lifetime of one edge process and never reused after teardown.
type ID int64

var nextID int64

// Registry is the connection id -> outbound queue table.
type Registry struct {
	mu    sync.RWMutex
	conns map[ID]*Queue
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{conns: make(map[ID]*Queue)}
}

// Add assigns a fresh id to q and inserts it into the table.
func (r *Registry) Add(q *Queue) ID {
	id := ID(atomic.AddInt64(&nextID, 1))

	r.mu.Lock()
	r.conns[id] = q
	r.mu.Unlock()

	return id
}

// Remove deletes id from the table. Callers are responsible for removing id
// from every distribution-map group first; Registry itself only owns the
// id -> queue mapping.
func (r *Registry) Remove(id ID) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Contains reports whether id is currently registered.
func (r *Registry) Contains(id ID) bool {
	r.mu.RLock()
	_, ok := r.conns[id]
	r.mu.RUnlock()
	return ok
}

// Snapshot returns the queue handles for the given ids. An id whose
// connection has torn down concurrently is silently skipped.
func (r *Registry) Snapshot(ids []ID) []*Queue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queues := make([]*Queue, 0, len(ids))
	for _, id := range ids {
		if q, ok := r.conns[id]; ok {
			queues = append(queues, q)
		}
	}
	return queues
}
