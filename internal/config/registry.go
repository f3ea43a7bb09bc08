package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/seedkit/internal/fixture"
)

// ErrBackendNotRegistered is returned by [Registry.Open] when no factory has
// been registered under the target's backend name.
var ErrBackendNotRegistered = errors.New("config: backend not registered")

// BackendFactory opens the fixture store for a target. The returned close
// function releases the store's resources and may be nil.
type BackendFactory func(ctx context.Context, target TargetConfig) (fixture.Store, func(), error)

// Registry maps backend names to their factories. It is safe for concurrent
// use.
type Registry struct {
	mu       sync.RWMutex
	backends map[Backend]BackendFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{backends: make(map[Backend]BackendFactory)}
}

// Register registers a backend factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) Register(name Backend, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = factory
}

// Backends returns the registered backend names, sorted.
func (r *Registry) Backends() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Backend, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open opens the store for target using the factory registered under
// target.Backend. Returns [ErrBackendNotRegistered] if there is none.
// The returned close function is never nil.
func (r *Registry) Open(ctx context.Context, target TargetConfig) (fixture.Store, func(), error) {
	r.mu.RLock()
	factory, ok := r.backends[target.Backend]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (target %q)", ErrBackendNotRegistered, target.Backend, target.Name)
	}
	store, closeFn, err := factory(ctx, target)
	if err != nil {
		return nil, nil, fmt.Errorf("config: open target %q: %w", target.Name, err)
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return store, closeFn, nil
}
