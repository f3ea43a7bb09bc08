// Package seeds holds the built-in example seeds for the fixture store and
// the reusable [Records] seed they are built from.
//
// Built-in seeds register themselves into [Builtin] from init functions.
package seeds

import (
	"context"
	"fmt"

	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// Builtin is the registry the example seeds register into.
var Builtin = seed.NewRegistry[fixture.Store]()

// Records is a seed that inserts a fixed set of records after dispatching
// its prerequisites.
type Records struct {
	// Requires lists entity types that must be seeded first.
	Requires []seed.EntityType

	// Records are inserted in order.
	Records []fixture.Record
}

var _ seed.Seed[fixture.Store] = (*Records)(nil)

// Seed implements [seed.Seed].
func (r *Records) Seed(ctx context.Context, db fixture.Store) error {
	if err := seed.Require(ctx, r.Requires...); err != nil {
		return err
	}
	if _, err := fixture.InsertAll(ctx, db, r.Records); err != nil {
		return fmt.Errorf("seeds: %w", err)
	}
	return nil
}

// register adds a Records seed for t to [Builtin].
func register(name string, t seed.EntityType, requires []seed.EntityType, recs ...fixture.Record) {
	for i := range recs {
		recs[i].Kind = string(t)
	}
	Builtin.MustRegister(seed.Registration[fixture.Store]{
		Name:     name,
		Produces: []seed.EntityType{t},
		New: func() seed.Seed[fixture.Store] {
			return &Records{Requires: requires, Records: recs}
		},
	})
}
