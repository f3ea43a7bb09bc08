package seed

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Compile-time check that Session can serve as a Dispatcher.
var _ Dispatcher = (*Session[any])(nil)

// SessionOption configures a [Session].
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger sets the logger used by the session. Default: [slog.Default].
func WithLogger(l *slog.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = l }
}

// WithObserver sets the [Observer] notified about seed runs.
func WithObserver(obs Observer) SessionOption {
	return func(o *sessionOptions) { o.observer = obs }
}

// Session runs seeds from a shared [Catalog] against one data context,
// running each entity type's seeds at most once until [Session.Reset].
//
// A Session is not safe for concurrent use. Use one session per test or
// worker, or serialise calls externally.
type Session[D any] struct {
	catalog  *Catalog[D]
	db       D
	seeded   map[EntityType]struct{}
	logger   *slog.Logger
	observer Observer
}

// NewSession returns a session bound to db with an empty seeded set. The
// catalog is referenced, not copied.
func NewSession[D any](catalog *Catalog[D], db D, opts ...SessionOption) *Session[D] {
	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.observer == nil {
		o.observer = NopObserver{}
	}
	if catalog == nil {
		catalog = NewCatalog[D]()
	}
	return &Session[D]{
		catalog:  catalog,
		db:       db,
		seeded:   make(map[EntityType]struct{}),
		logger:   o.logger,
		observer: o.observer,
	}
}

// Seed runs every seed registered for t, in registration order, unless t was
// already dispatched in this session. The type is marked before any seed runs
// and stays marked if a seed fails. The first seed error is returned
// unchanged and the remaining seeds for t are skipped. Requesting a type with
// no registered seed succeeds without doing anything.
func (s *Session[D]) Seed(ctx context.Context, t EntityType) error {
	if _, done := s.seeded[t]; done {
		s.observer.DispatchSkipped(ctx, t, SkipAlreadySeeded)
		return nil
	}
	s.seeded[t] = struct{}{}

	factories := s.catalog.entries[t]
	if len(factories) == 0 {
		s.logger.DebugContext(ctx, "no seeds registered", "entity_type", t)
		s.observer.DispatchSkipped(ctx, t, SkipUnregistered)
		return nil
	}

	ctx = withDispatcher(ctx, s)
	for _, f := range factories {
		if err := s.run(ctx, t, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session[D]) run(ctx context.Context, t EntityType, f NamedFactory[D]) error {
	ctx = s.observer.SeedStarted(ctx, t, f.Name)
	start := time.Now()

	err := s.invoke(ctx, t, f)

	elapsed := time.Since(start)
	s.observer.SeedFinished(ctx, t, f.Name, elapsed, err)
	if err != nil {
		s.logger.DebugContext(ctx, "seed failed", "entity_type", t, "seed", f.Name, "err", err)
		return err
	}
	s.logger.DebugContext(ctx, "seed completed", "entity_type", t, "seed", f.Name, "elapsed", elapsed)
	return nil
}

func (s *Session[D]) invoke(ctx context.Context, t EntityType, f NamedFactory[D]) error {
	if f.New == nil {
		return fmt.Errorf("%w: %q for %q has no constructor", ErrMalformedSeed, f.Name, t)
	}
	sd := f.New()
	if sd == nil {
		return fmt.Errorf("%w: %q for %q constructed a nil seed", ErrMalformedSeed, f.Name, t)
	}
	return sd.Seed(ctx, s.db)
}

// SeedAll dispatches every entity type in the catalog, in [Catalog.Types]
// order. It stops at the first error, leaving later types unmarked.
func (s *Session[D]) SeedAll(ctx context.Context) error {
	for _, t := range s.catalog.order {
		if err := s.Seed(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Reset forgets which entity types have been seeded. It does not touch the
// data context or the catalog.
func (s *Session[D]) Reset() {
	clear(s.seeded)
}

// Seeded reports whether t has been dispatched since the last reset.
func (s *Session[D]) Seeded(t EntityType) bool {
	_, ok := s.seeded[t]
	return ok
}

// SeededTypes returns the dispatched entity types, sorted.
func (s *Session[D]) SeededTypes() []EntityType {
	out := make([]EntityType, 0, len(s.seeded))
	for t := range s.seeded {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// DB returns the data context the session is bound to.
func (s *Session[D]) DB() D { return s.db }

// Catalog returns the catalog the session dispatches from.
func (s *Session[D]) Catalog() *Catalog[D] { return s.catalog }
