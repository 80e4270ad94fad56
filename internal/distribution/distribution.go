// Package distribution implements the group_id -> set<ConnectionID> fan-out
// map. Each group holds a copy-on-write []ConnectionID snapshot behind an
// atomic.Value, with one sync.RWMutex guarding only the outer map structure,
// so the broadcast hot path reads snapshots lock-free while subscribe and
// unsubscribe serialize on the write lock.
package distribution

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pablitocbr/commenter-edge/internal/frame"
	"github.com/pablitocbr/commenter-edge/internal/registry"
)

// Map is the group_id -> set<ConnectionID> distribution table.
type Map struct {
	mu       sync.RWMutex
	groups   map[string]*atomic.Value // group_id -> *[]registry.ID snapshot
	registry *registry.Registry
}

// New builds an empty Map bound to reg, used to validate Subscribe calls and
// to resolve queue handles during Broadcast.
func New(reg *registry.Registry) *Map {
	return &Map{
		groups:   make(map[string]*atomic.Value),
		registry: reg,
	}
}

// Subscribe adds id to group's set. Rejects with an error if id is not
// currently present in the registry. Idempotent: subscribing twice is a
// no-op success. The write lock is held across the whole load-copy-store so
// concurrent writers never clobber each other's snapshots; readers stay
// lock-free.
func (m *Map) Subscribe(id registry.ID, group string) error {
	if !m.registry.Contains(id) {
		return fmt.Errorf("distribution: connection %d is not registered", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	val, ok := m.groups[group]
	if !ok {
		val = &atomic.Value{}
		m.groups[group] = val
	}

	var current []registry.ID
	if v := val.Load(); v != nil {
		current = v.([]registry.ID)
	}
	for _, existing := range current {
		if existing == id {
			return nil
		}
	}

	next := make([]registry.ID, len(current)+1)
	copy(next, current)
	next[len(current)] = id
	val.Store(next)
	return nil
}

// Unsubscribe removes id from group's set, if present. A missing group or a
// missing id are both non-errors.
func (m *Map) Unsubscribe(id registry.ID, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, ok := m.groups[group]
	if !ok {
		return
	}

	v := val.Load()
	if v == nil {
		return
	}
	current := v.([]registry.ID)

	for i, existing := range current {
		if existing != id {
			continue
		}
		next := make([]registry.ID, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		val.Store(next)
		return
	}
}

// RemoveConnection removes id from every group's set, called on connection
// teardown.
func (m *Map) RemoveConnection(id registry.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, val := range m.groups {
		v := val.Load()
		if v == nil {
			continue
		}
		current := v.([]registry.ID)
		for i, existing := range current {
			if existing == id {
				next := make([]registry.ID, 0, len(current)-1)
				next = append(next, current[:i]...)
				next = append(next, current[i+1:]...)
				val.Store(next)
				break
			}
		}
	}
}

// Broadcast enqueues f on every connection subscribed to group. Queue
// handles are collected under the registry's read lock and released before
// enqueuing, so no lock is held across a Push. Delivery to each queue is
// best-effort: a closed queue (connection tearing down) is swallowed.
func (m *Map) Broadcast(group string, f frame.ServerFrame) {
	m.mu.RLock()
	val, ok := m.groups[group]
	m.mu.RUnlock()
	if !ok {
		return
	}

	v := val.Load()
	if v == nil {
		return
	}
	ids := v.([]registry.ID)

	queues := m.registry.Snapshot(ids)
	for _, q := range queues {
		q.Push(f)
	}
}

// Members returns a snapshot of the connection ids subscribed to group, for
// diagnostics and tests.
func (m *Map) Members(group string) []registry.ID {
	m.mu.RLock()
	val, ok := m.groups[group]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	v := val.Load()
	if v == nil {
		return nil
	}
	return v.([]registry.ID)
}
