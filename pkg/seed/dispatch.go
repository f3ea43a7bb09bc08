package seed

import (
	"context"
	"errors"
)

// ErrNoDispatcher is returned by [Require] when ctx was not produced by a
// running [Session].
var ErrNoDispatcher = errors.New("seed: no dispatcher in context")

// Dispatcher dispatches seeds by entity type. [*Session] implements it.
type Dispatcher interface {
	Seed(ctx context.Context, t EntityType) error
}

type dispatcherKey struct{}

func withDispatcher(ctx context.Context, d Dispatcher) context.Context {
	return context.WithValue(ctx, dispatcherKey{}, d)
}

// DispatcherFrom returns the session that is running the current seed.
func DispatcherFrom(ctx context.Context) (Dispatcher, bool) {
	d, ok := ctx.Value(dispatcherKey{}).(Dispatcher)
	return d, ok
}

// Require dispatches each of types through the session running the current
// seed, in order, stopping at the first error. Call it at the top of a seed
// body to make sure prerequisite data exists:
//
//	func (npcSeed) Seed(ctx context.Context, db *Store) error {
//		if err := seed.Require(ctx, "location"); err != nil {
//			return err
//		}
//		…
//	}
//
// Types already seeded in the session are skipped, which also keeps cyclic
// requirements from recursing.
func Require(ctx context.Context, types ...EntityType) error {
	if len(types) == 0 {
		return nil
	}
	d, ok := DispatcherFrom(ctx)
	if !ok {
		return ErrNoDispatcher
	}
	for _, t := range types {
		if err := d.Seed(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
