// Package target pairs a fixture store with the seed session dispatching
// into it. A [Target] serialises access to its session so it can be shared
// between HTTP handlers and command-line runs.
package target

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// Target is a named fixture store with its own seed session.
type Target struct {
	name  string
	store fixture.Store
	close func()

	mu      sync.Mutex
	session *seed.Session[fixture.Store]
}

// New creates a target over store. closeFn is called by [Target.Close] and
// may be nil.
func New(name string, store fixture.Store, catalog *seed.Catalog[fixture.Store], closeFn func(), opts ...seed.SessionOption) *Target {
	if closeFn == nil {
		closeFn = func() {}
	}
	return &Target{
		name:    name,
		store:   store,
		close:   closeFn,
		session: seed.NewSession(catalog, store, opts...),
	}
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Store returns the underlying fixture store.
func (t *Target) Store() fixture.Store { return t.store }

// Seed dispatches types in order and stops at the first failure.
func (t *Target) Seed(ctx context.Context, types ...seed.EntityType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, et := range types {
		if err := t.session.Seed(ctx, et); err != nil {
			return fmt.Errorf("target %s: seed %s: %w", t.name, et, err)
		}
	}
	return nil
}

// SeedAll dispatches every type in the catalog.
func (t *Target) SeedAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.session.SeedAll(ctx); err != nil {
		return fmt.Errorf("target %s: seed all: %w", t.name, err)
	}
	return nil
}

// Reset forgets which types were seeded. With truncate set the store is
// emptied first so reseeding does not collide with existing records.
func (t *Target) Reset(ctx context.Context, truncate bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if truncate {
		if err := t.store.Truncate(ctx); err != nil {
			return fmt.Errorf("target %s: truncate: %w", t.name, err)
		}
	}
	t.session.Reset()
	return nil
}

// Seeded returns the types dispatched since creation or the last reset,
// sorted.
func (t *Target) Seeded() []seed.EntityType {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.SeededTypes()
}

// Close releases the store.
func (t *Target) Close() {
	t.close()
}
