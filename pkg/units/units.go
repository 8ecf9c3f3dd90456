// Package units holds the handler-unit registry and the lazy loader/cache
// that resolves route handler identifiers to invocable units.
package units

import (
	"fmt"
	"sort"
	"sync"

	"worldmonitor/pkg/httpx"
)

// Factory constructs a handler unit. It runs at most once per unit id for
// the process lifetime; the result is cached by the Loader.
type Factory func() (httpx.HandlerFunc, error)

// Registry maps unit names (paths relative to the handler root, extension
// stripped) to factories. Registration happens during startup, before the
// server accepts traffic.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a unit name to its factory. A later registration for the
// same name replaces the earlier one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns all registered unit names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) factory(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Loader resolves unit ids to handlers, memoizing each resolution for the
// process lifetime. The fetch-or-insert is synchronized so a factory runs
// at most once even under concurrent first calls.
type Loader struct {
	reg   *Registry
	mu    sync.Mutex
	cache map[string]httpx.HandlerFunc
}

func NewLoader(reg *Registry) *Loader {
	return &Loader{reg: reg, cache: make(map[string]httpx.HandlerFunc)}
}

// Resolve returns the handler for a unit id, constructing it on first use.
// An unregistered id or a failing factory is a resolution failure; the
// dispatcher surfaces it as a 500.
func (l *Loader) Resolve(id string) (httpx.HandlerFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.cache[id]; ok {
		return h, nil
	}
	f, ok := l.reg.factory(id)
	if !ok {
		return nil, fmt.Errorf("no handler unit registered for %q", id)
	}
	h, err := f()
	if err != nil {
		return nil, fmt.Errorf("load unit %q: %w", id, err)
	}
	if h == nil {
		return nil, fmt.Errorf("unit %q resolved to no handler", id)
	}
	l.cache[id] = h
	return h, nil
}
