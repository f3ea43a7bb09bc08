// Package resilience guards fixture stores with a circuit breaker so that a
// target whose database has gone away fails fast instead of every request
// waiting out connection timeouts.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/MrWong99/seedkit/internal/fixture"
)

// ErrCircuitOpen is wrapped by errors returned while the breaker rejects
// calls, either because it is open or because the half-open trial budget is
// spent. The underlying gobreaker error stays reachable with errors.Is.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// Breaker defaults applied by [GuardStore].
const (
	DefaultMaxFailures  = 5
	DefaultResetTimeout = 30 * time.Second
)

// CircuitBreakerConfig tunes the breaker in front of a store.
type CircuitBreakerConfig struct {
	// Name labels log messages. Usually the target name.
	Name string

	// MaxFailures is the number of consecutive store failures that opens
	// the breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before letting
	// trial calls through. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of successful trial calls needed to close the
	// breaker again. Default: 1.
	HalfOpenMax int
}

// IsStoreFailure reports whether err from a [fixture.Store] points at the
// store itself rather than at the request. Missing or duplicate records,
// invalid input and caller cancellation do not count.
func IsStoreFailure(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, fixture.ErrNotFound),
		errors.Is(err, fixture.ErrDuplicateID),
		errors.Is(err, fixture.ErrInvalidRecord),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// GuardedStore wraps a [fixture.Store] so every call goes through a
// gobreaker circuit breaker. It is safe for concurrent use.
type GuardedStore struct {
	store    fixture.Store
	name     string
	settings gobreaker.Settings
	cb       atomic.Pointer[gobreaker.CircuitBreaker]
}

var _ fixture.Store = (*GuardedStore)(nil)

// GuardStore wraps store with a breaker built from cfg. Zero-value config
// fields are replaced with defaults.
func GuardStore(store fixture.Store, cfg CircuitBreakerConfig) *GuardedStore {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultResetTimeout
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	maxFailures := uint32(cfg.MaxFailures)

	g := &GuardedStore{store: store, name: cfg.Name}
	g.settings = gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenMax),
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool { return !IsStoreFailure(err) },
		OnStateChange: func(name string, from, to gobreaker.State) {
			l := slog.Default().With("target", name, "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				l.Warn("store circuit breaker opened")
				return
			}
			l.Info("store circuit breaker state changed")
		},
	}
	g.cb.Store(gobreaker.NewCircuitBreaker(g.settings))
	return g
}

// State returns the current breaker state.
func (g *GuardedStore) State() gobreaker.State { return g.cb.Load().State() }

func (g *GuardedStore) Insert(ctx context.Context, rec fixture.Record) (fixture.Record, error) {
	return execute(g, func() (fixture.Record, error) { return g.store.Insert(ctx, rec) })
}

func (g *GuardedStore) Get(ctx context.Context, id string) (fixture.Record, error) {
	return execute(g, func() (fixture.Record, error) { return g.store.Get(ctx, id) })
}

func (g *GuardedStore) List(ctx context.Context, opts fixture.ListOptions) ([]fixture.Record, error) {
	return execute(g, func() ([]fixture.Record, error) { return g.store.List(ctx, opts) })
}

func (g *GuardedStore) Count(ctx context.Context, kind string) (int, error) {
	return execute(g, func() (int, error) { return g.store.Count(ctx, kind) })
}

func (g *GuardedStore) Truncate(ctx context.Context) error {
	_, err := execute(g, func() (struct{}, error) { return struct{}{}, g.store.Truncate(ctx) })
	return err
}

// Ping goes through the breaker like every other call. While the breaker
// rejects calls, Ping reaches the store directly so readiness reflects the
// store, and a successful ping replaces the breaker with a closed one.
func (g *GuardedStore) Ping(ctx context.Context) error {
	_, err := execute(g, func() (struct{}, error) { return struct{}{}, g.store.Ping(ctx) })
	if !errors.Is(err, ErrCircuitOpen) {
		return err
	}
	if err := g.store.Ping(ctx); err != nil {
		return err
	}
	g.cb.Store(gobreaker.NewCircuitBreaker(g.settings))
	slog.Info("store circuit breaker closed after successful ping", "target", g.name)
	return nil
}

func execute[T any](g *GuardedStore, fn func() (T, error)) (T, error) {
	res, err := g.cb.Load().Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %s: %w", ErrCircuitOpen, g.name, err)
		}
		return zero, err
	}
	return res.(T), nil
}
