package model

import (
	"fmt"
	"sync"
)

// ModelID is the interned identity of a registered model. It is the instancing key.
type ModelID uint32

// NoModel is the zero ModelID. It never names a registered model.
const NoModel ModelID = 0

// ModelSpec is the per-entity model component. It is immutable after spawn.
type ModelSpec struct {
	ID ModelID
}

// Registry interns model names to ModelIDs. IDs start at 1 and are never reused.
type Registry struct {
	mu    sync.RWMutex
	ids   map[string]ModelID
	names []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:   make(map[string]ModelID),
		names: []string{""},
	}
}

// Intern returns the ModelID for name, assigning the next one on first use.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelID: the interned identifier
func (r *Registry) Intern(name string) ModelID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := ModelID(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// Lookup returns the ModelID of a previously interned name.
func (r *Registry) Lookup(name string) (ModelID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[name]
	return id, ok
}

// MustLookup is Lookup that panics on an unknown name.
func (r *Registry) MustLookup(name string) ModelID {
	id, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("model: %q is not registered", name))
	}
	return id
}

// Name returns the name interned as id, or "" for an unknown id.
func (r *Registry) Name(id ModelID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == NoModel || int(id) >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// Len returns the number of interned names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names) - 1
}
