package seed

import (
	"fmt"
	"sync"
)

// Registry collects seed registrations for one data context type. Seeds
// usually register themselves from init functions, so the application never
// maintains a central list.
//
// The first call to [Registry.Catalog] builds the catalog and freezes the
// registry. It is safe for concurrent use.
type Registry[D any] struct {
	mu     sync.Mutex
	regs   []Registration[D]
	frozen bool

	once    sync.Once
	catalog *Catalog[D]
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry[D any]() *Registry[D] {
	return &Registry[D]{}
}

// Register appends reg to the registry. It returns [ErrInvalidRegistration]
// if reg declares an empty entity type and [ErrRegistryFrozen] once the
// catalog has been built.
func (r *Registry[D]) Register(reg Registration[D]) error {
	for i, t := range reg.Produces {
		if t == "" {
			return fmt.Errorf("%w: %q produces[%d] is empty", ErrInvalidRegistration, reg.Name, i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, reg.Name)
	}
	reg.Produces = append([]EntityType(nil), reg.Produces...)
	r.regs = append(r.regs, reg)
	return nil
}

// MustRegister is like [Registry.Register] but panics on error. It is meant
// for init functions.
func (r *Registry[D]) MustRegister(reg Registration[D]) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

// Registrations returns a copy of all registrations in registration order.
func (r *Registry[D]) Registrations() []Registration[D] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Registration[D], len(r.regs))
	copy(out, r.regs)
	return out
}

// Catalog builds the catalog on first call and returns the same instance
// afterwards. Registrations made after the first call are rejected.
func (r *Registry[D]) Catalog() *Catalog[D] {
	r.once.Do(func() {
		r.mu.Lock()
		r.frozen = true
		regs := r.regs
		r.mu.Unlock()
		r.catalog = NewCatalog(regs...)
	})
	return r.catalog
}
