package registry

import (
	"sort"
	"sync"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/tree"
)

// ErrNotFound is returned by Get when no instance is registered at a path.
var ErrNotFound = errors.New("E002")

// Registry maps paths to shared component instances.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Handle
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Handle),
	}
}

// Get returns the instance registered at p.
func (r *Registry) Get(p path.Path) (*Handle, error) {
	r.mu.Lock()
	h, ok := r.entries[p.Key()]
	r.mu.Unlock()

	if !ok {
		return nil, errors.New("E002").WithDetailf("path %s", p)
	}
	return h, nil
}

// GetOrInsert returns the instance registered at p, creating it with factory
// if absent. The check and the insert happen under one lock acquisition, so
// factory runs at most once per path. created reports whether this call
// inserted the entry.
func (r *Registry) GetOrInsert(p path.Path, factory tree.Factory) (h *Handle, created bool) {
	key := p.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.entries[key]; ok {
		return h, false
	}
	h = newHandle(p, factory())
	r.entries[key] = h
	return h, true
}

// Insert registers inst at p, replacing any existing entry.
func (r *Registry) Insert(p path.Path, inst tree.Instance) *Handle {
	h := newHandle(p, inst)

	r.mu.Lock()
	r.entries[p.Key()] = h
	r.mu.Unlock()

	return h
}

// Retain removes every entry whose key is not in live and returns the number
// of entries removed.
func (r *Registry) Retain(live map[string]struct{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key := range r.entries {
		if _, ok := live[key]; !ok {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Paths returns the registered paths sorted by key.
func (r *Registry) Paths() []path.Path {
	r.mu.Lock()
	out := make([]path.Path, 0, len(r.entries))
	for _, h := range r.entries {
		out = append(out, h.path)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key() < out[j].Key()
	})
	return out
}
