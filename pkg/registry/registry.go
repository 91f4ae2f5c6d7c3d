package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrCapabilityNotFound is returned when no effect is registered under a name.
var ErrCapabilityNotFound = errors.New("capability not found")

// Effect is the implementation of an action capability.
// It receives the parameter carried to the action node.
// Effects should be idempotent: a run interrupted before the action
// completes re-enters it on resume.
type Effect func(ctx context.Context, param any) error

// Registry maps stable capability names to effects.
// Checkpoints only reference names, so behavior is re-bound here on resume.
type Registry struct {
	mu      sync.RWMutex
	effects map[string]Effect
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		effects: make(map[string]Effect),
	}
}

// Register adds a capability to the registry.
// If a capability with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.effects[name] = fn
}

// Lookup returns the effect registered under name.
func (r *Registry) Lookup(name string) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.effects[name]
	return fn, ok
}

// Execute looks up a capability by name and invokes it.
// Returns ErrCapabilityNotFound if the capability is not registered.
func (r *Registry) Execute(ctx context.Context, name string, param any) error {
	fn, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityNotFound, name)
	}
	return fn(ctx, param)
}

// Names returns the registered capability names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.effects))
	for name := range r.effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
