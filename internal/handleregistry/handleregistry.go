// Package handleregistry is the one piece of global, shared state this
// module permits: a registry mapping opaque handle IDs to a
// *loadorder.Core, with every operation against a given handle
// serialized behind its own lock so concurrent callers never race on
// the same load order. Unrelated handles proceed independently.
package handleregistry

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
)

// ErrHandleNotFound is returned for any operation against an ID the
// registry doesn't (or no longer) holds.
var ErrHandleNotFound = errors.New("handle not found")

type handle struct {
	mu   sync.Mutex
	core *loadorder.Core
}

// Registry holds every open handle. The zero value is not usable; build
// one with New.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*handle
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{handles: make(map[string]*handle)}
}

// Open registers core under a freshly generated handle ID and returns it.
func (r *Registry) Open(core *loadorder.Core) string {
	id := uuid.New().String()
	h := &handle{core: core}

	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()

	return id
}

// Close discards the handle. Any call to WithCore already past its
// lookup will still finish running against the now-detached Core.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[id]; !ok {
		return ErrHandleNotFound
	}
	delete(r.handles, id)
	return nil
}

func (r *Registry) lookup(id string) (*handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handles[id]
	if !ok {
		return nil, ErrHandleNotFound
	}
	return h, nil
}

// WithCore runs fn against the Core behind id, holding that handle's
// lock for the duration so no other caller can observe or mutate it
// mid-operation. The registry-wide lock is only held long enough to
// find the handle, so concurrent calls against different handles never
// block one another.
func (r *Registry) WithCore(id string, fn func(*loadorder.Core) error) error {
	h, err := r.lookup(id)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.core)
}

// Len reports how many handles are currently open.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
