// Package subscription tracks the set of instruments the stream should be
// subscribed to.
package subscription

import "sync"

// Registry is an ordered, de-duplicated set of instrument ids. It only grows;
// ids are never removed for the lifetime of the registry.
type Registry struct {
	mu    sync.RWMutex
	ids   []string
	index map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]struct{}),
	}
}

// Add records ids and returns those that were not present before, in input
// order and without duplicates. Empty ids are ignored.
func (r *Registry) Add(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var delta []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := r.index[id]; ok {
			continue
		}
		r.index[id] = struct{}{}
		r.ids = append(r.ids, id)
		delta = append(delta, id)
	}
	return delta
}

// AllIDs returns a snapshot of every registered id in insertion order.
func (r *Registry) AllIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Contains reports whether id has been registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[id]
	return ok
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.ids)
}
