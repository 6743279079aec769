package registry

import (
	"sort"
	"sync"
)

// Junction is the light state currently shown at a signal location.
type Junction struct {
	Status   string  `json:"status"`
	TimeLeft float64 `json:"time_left"`
}

// Registry offers a threadsafe in-memory mapping from junction identifier to state.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Junction
}

// New returns an empty registry ready for population from a seed or from updates.
func New() *Registry {
	return &Registry{entries: map[string]Junction{}}
}

// NewSeeded returns a registry holding a copy of seed.
func NewSeeded(seed map[string]Junction) *Registry {
	r := New()
	for id, j := range seed {
		r.entries[id] = j
	}
	return r
}

// DefaultSeed is the state every junction registry starts from.
func DefaultSeed() map[string]Junction {
	return map[string]Junction{
		"junction_1": {Status: "green", TimeLeft: 30},
		"junction_2": {Status: "red", TimeLeft: 45},
		"junction_3": {Status: "yellow", TimeLeft: 10},
	}
}

// Set stores or fully replaces the state of a junction.
func (r *Registry) Set(id string, j Junction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = j
}

// Get retrieves a junction by identifier and a boolean indicating its presence.
func (r *Registry) Get(id string) (Junction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.entries[id]
	return j, ok
}

// Snapshot copies every entry so callers can encode it without holding the lock.
func (r *Registry) Snapshot() map[string]Junction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Junction, len(r.entries))
	for id, j := range r.entries {
		out[id] = j
	}
	return out
}

// IDs lists the known junction identifiers in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports how many junctions are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
