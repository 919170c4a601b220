package glyph

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultCapacity is the registry bound used when none is configured.
const DefaultCapacity = 256

// ErrRegistryFull is returned when registering a new id would exceed the
// configured capacity. Overwriting an existing id never fails this way.
var ErrRegistryFull = errors.New("glyph registry full")

// Registry is an insertion-ordered, bounded collection of definitions
// keyed by glyph id. Registration of a duplicate id overwrites the stored
// definition in place (last load wins) while keeping its original
// position. The arena slice plus index map keeps capacity a runtime
// configuration value rather than a fixed array size.
//
// Reads and writes are guarded by one mutex so the vault watcher can
// reload definitions while a caller lists or resolves; all other engine
// state stays single-threaded.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	arena    []*Definition
	index    map[string]int
}

// NewRegistry returns a registry bounded at capacity; a non-positive
// capacity falls back to DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		capacity: capacity,
		arena:    make([]*Definition, 0, capacity),
		index:    make(map[string]int, capacity),
	}
}

// Register inserts a definition by id, overwriting any existing entry
// with the same id. A new id beyond capacity is a hard failure.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("%w: definition has no id", ErrMalformedRecord)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[def.ID]; ok {
		r.arena[i] = def
		return nil
	}
	if len(r.arena) >= r.capacity {
		return fmt.Errorf("%w: capacity %d reached registering %q",
			ErrRegistryFull, r.capacity, def.ID)
	}
	r.index[def.ID] = len(r.arena)
	r.arena = append(r.arena, def)
	return nil
}

// Find returns the definition for id, or false when unregistered.
func (r *Registry) Find(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.arena[i], true
}

// List returns all definitions in insertion order.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, len(r.arena))
	copy(out, r.arena)
	return out
}

// Len returns the number of registered glyphs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.arena)
}

// Capacity returns the configured bound.
func (r *Registry) Capacity() int {
	return r.capacity
}
