// Package seed provides a dependency-aware registry and dispatcher for seed
// operations that populate a test or development data store with fixture
// data.
//
// Seeds are registered against the entity types they produce. A [Catalog]
// indexes those registrations once and is shared read-only; a [Session] binds
// one data context and runs each entity type's seeds at most once until it is
// [Session.Reset].
//
//	reg := seed.NewRegistry[*Store]()
//	reg.MustRegister(seed.Registration[*Store]{
//		Name:     "users",
//		Produces: []seed.EntityType{"user"},
//		New:      func() seed.Seed[*Store] { return usersSeed{} },
//	})
//
//	s := seed.NewSession(reg.Catalog(), store)
//	if err := s.Seed(ctx, "user"); err != nil { … }
//
// Seeds that depend on other entity types request them from inside their own
// body with [Require]. There is no automatic dependency resolution.
package seed

import (
	"context"
	"errors"
	"reflect"
)

// ErrMalformedSeed is returned when a registered factory is nil or produces a
// nil seed. It surfaces when the factory is invoked, never at catalog build.
var ErrMalformedSeed = errors.New("seed: malformed seed registration")

// ErrInvalidRegistration is returned by [Registry.Register] when a
// registration declares an empty entity type.
var ErrInvalidRegistration = errors.New("seed: invalid registration")

// ErrRegistryFrozen is returned by [Registry.Register] once the registry's
// catalog has been built.
var ErrRegistryFrozen = errors.New("seed: registry is frozen")

// EntityType identifies the kind of data a seed produces. It is only ever
// used as a lookup key.
type EntityType string

// String returns the entity type as a plain string.
func (t EntityType) String() string { return string(t) }

// EntityTypeOf returns a stable entity type key for the Go type T, formed
// from its package path and name (e.g. "example.com/app/model.User").
// Unnamed types fall back to their type literal.
func EntityTypeOf[T any]() EntityType {
	rt := reflect.TypeFor[T]()
	for rt.Kind() == reflect.Pointer && rt.Name() == "" {
		rt = rt.Elem()
	}
	if rt.Name() == "" || rt.PkgPath() == "" {
		return EntityType(rt.String())
	}
	return EntityType(rt.PkgPath() + "." + rt.Name())
}

// Seed populates a data context of type D. Implementations should honour ctx
// cancellation; the dispatcher does not interrupt a running seed.
type Seed[D any] interface {
	Seed(ctx context.Context, db D) error
}

// SeedFunc adapts an ordinary function to the [Seed] interface.
type SeedFunc[D any] func(ctx context.Context, db D) error

// Seed calls f(ctx, db).
func (f SeedFunc[D]) Seed(ctx context.Context, db D) error {
	return f(ctx, db)
}

// Factory constructs a fresh seed instance. It is called once per dispatch of
// every entity type the seed is registered for.
type Factory[D any] func() Seed[D]

// Registration declares a seed and the entity types it produces.
type Registration[D any] struct {
	// Name labels the seed in logs and metrics. Defaults to
	// "<entity type>#<index>" when empty.
	Name string

	// Produces lists the entity types this seed populates. A registration
	// without any entity type is not indexed.
	Produces []EntityType

	// New constructs the seed. A nil New is reported as [ErrMalformedSeed]
	// when the seed is dispatched.
	New Factory[D]
}
