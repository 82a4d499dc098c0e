package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ExecContext is handed to a handler when its deferred action fires.
type ExecContext struct {
	context.Context
	GuildID     string
	ActionID    int64
	HandlerName string
}

// HandlerFunc runs a deferred action with the args stored at schedule time.
type HandlerFunc func(ctx ExecContext, args []string) error

// Registry maps handler names to functions. It is filled at startup and
// sealed before the scheduler starts firing, after which it is read-only.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	sealed   bool
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds a handler. Names are unique.
func (r *Registry) Register(name string, fn HandlerFunc) error {
	if name == "" {
		return fmt.Errorf("handler name is empty")
	}
	if fn == nil {
		return fmt.Errorf("handler %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("registry is sealed, cannot register %q", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	r.handlers[name] = fn
	return nil
}

// MustRegister is Register for startup code; it panics on error.
func (r *Registry) MustRegister(name string, fn HandlerFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup resolves a handler by name
func (r *Registry) Lookup(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

// Names returns every registered handler name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
