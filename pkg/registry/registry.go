package registry

import (
	"context"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Registry manages the executors available to a dispatcher, keyed by
// transition kind. Kinds without a registered executor resolve to the
// fallback, so host-specific kinds degrade to an observable no-op instead of
// failing the contract.
type Registry struct {
	mu        sync.RWMutex
	executors map[domain.Kind]ports.Executor
	fallback  ports.Executor
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		executors: make(map[domain.Kind]ports.Executor),
	}
}

// Register adds an executor for a kind.
// If an executor for the same kind exists, it is overwritten.
func (r *Registry) Register(kind domain.Kind, exec ports.Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[kind] = exec
}

// SetFallback sets the executor used for kinds with no registration.
func (r *Registry) SetFallback(exec ports.Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = exec
}

// Resolve returns the executor for a kind, falling back when unregistered.
// The bool reports whether any executor (including the fallback) is available.
func (r *Registry) Resolve(kind domain.Kind) (ports.Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if exec, ok := r.executors[kind]; ok {
		return exec, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Kinds returns the registered kinds. Used by introspection surfaces.
func (r *Registry) Kinds() []domain.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.Kind, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	return kinds
}

// Apply resolves and runs the executor for the invocation's transition kind.
// Returns false when no executor (not even a fallback) is available.
func (r *Registry) Apply(ctx context.Context, inv domain.Invocation) (bool, error) {
	exec, ok := r.Resolve(inv.Transition.Kind)
	if !ok {
		return false, nil
	}
	return true, exec.Apply(ctx, inv)
}
