package seed

import (
	"context"
	"time"
)

// SkipReason explains why a dispatch request did not run any seed.
type SkipReason string

const (
	// SkipAlreadySeeded means the entity type was dispatched earlier in the
	// same session.
	SkipAlreadySeeded SkipReason = "already_seeded"

	// SkipUnregistered means no seed is registered for the entity type.
	SkipUnregistered SkipReason = "unregistered"
)

// Observer receives notifications about seed execution. Implementations must
// be safe for concurrent use when shared between sessions.
type Observer interface {
	// SeedStarted is called before a seed runs. The returned context is
	// passed to the seed and to SeedFinished.
	SeedStarted(ctx context.Context, t EntityType, name string) context.Context

	// SeedFinished is called after a seed returns, with its error if any.
	SeedFinished(ctx context.Context, t EntityType, name string, elapsed time.Duration, err error)

	// DispatchSkipped is called when a dispatch request is a no-op.
	DispatchSkipped(ctx context.Context, t EntityType, reason SkipReason)
}

// NopObserver is an [Observer] that does nothing.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) SeedStarted(ctx context.Context, _ EntityType, _ string) context.Context {
	return ctx
}

func (NopObserver) SeedFinished(context.Context, EntityType, string, time.Duration, error) {}

func (NopObserver) DispatchSkipped(context.Context, EntityType, SkipReason) {}
