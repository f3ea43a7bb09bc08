// Package app wires the seed catalog, configured targets and the HTTP
// control surface into a running application.
//
// New opens every target through the backend registry, SeedTargets and Run
// drive the targets, and Shutdown tears everything down in reverse order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/seedkit/internal/config"
	"github.com/MrWong99/seedkit/internal/fixture"
	"github.com/MrWong99/seedkit/internal/health"
	"github.com/MrWong99/seedkit/internal/observe"
	"github.com/MrWong99/seedkit/internal/resilience"
	"github.com/MrWong99/seedkit/internal/server"
	"github.com/MrWong99/seedkit/internal/target"
	"github.com/MrWong99/seedkit/pkg/seed"
)

// ErrUnknownTarget is returned when a requested target is not configured.
var ErrUnknownTarget = errors.New("app: unknown target")

// shutdownGrace bounds how long Run waits for in-flight requests after its
// context is cancelled.
const shutdownGrace = 10 * time.Second

// App owns the lifetime of all targets and the HTTP server.
type App struct {
	cfg     *config.Config
	catalog *seed.Catalog[fixture.Store]

	metrics  *observe.Metrics
	observer seed.Observer
	handlers map[string]http.Handler

	targets []*target.Target
	byName  map[string]*target.Target

	srvMu sync.Mutex
	srv   *http.Server

	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics sets the metrics instance used for HTTP and seed
// instrumentation. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithObserver replaces the default [observe.SeedObserver].
func WithObserver(o seed.Observer) Option {
	return func(a *App) { a.observer = o }
}

// WithHandler mounts h on the HTTP server under pattern.
func WithHandler(pattern string, h http.Handler) Option {
	return func(a *App) { a.handlers[pattern] = h }
}

// New opens every configured target through reg and builds one seed session
// per target over catalog. Targets with truncate set are emptied once opened.
// If any target fails to open, the ones already opened are closed.
func New(ctx context.Context, cfg *config.Config, reg *config.Registry, catalog *seed.Catalog[fixture.Store], opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		catalog:  catalog,
		handlers: make(map[string]http.Handler),
		byName:   make(map[string]*target.Target, len(cfg.Targets)),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.observer == nil {
		a.observer = observe.NewSeedObserver(a.metrics)
	}

	for _, tc := range cfg.Targets {
		t, err := a.openTarget(ctx, reg, tc)
		if err != nil {
			a.closeTargets()
			return nil, err
		}
		a.targets = append(a.targets, t)
		a.byName[tc.Name] = t
	}

	slog.Info("app initialised", "targets", len(a.targets), "entity_types", catalog.Len())
	return a, nil
}

func (a *App) openTarget(ctx context.Context, reg *config.Registry, tc config.TargetConfig) (*target.Target, error) {
	store, closeFn, err := reg.Open(ctx, tc)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if tc.Truncate {
		if err := store.Truncate(ctx); err != nil {
			closeFn()
			return nil, fmt.Errorf("app: truncate target %q: %w", tc.Name, err)
		}
	}
	if tc.Breaker.Enabled() {
		store = resilience.GuardStore(store, resilience.CircuitBreakerConfig{
			Name:         tc.Name,
			MaxFailures:  tc.Breaker.MaxFailures,
			ResetTimeout: tc.Breaker.ResetTimeout,
		})
	}
	logger := slog.Default().With("target", tc.Name)
	return target.New(tc.Name, store, a.catalog, closeFn,
		seed.WithLogger(logger),
		seed.WithObserver(a.observer),
	), nil
}

// Targets returns the opened targets in configuration order.
func (a *App) Targets() []*target.Target {
	return append([]*target.Target(nil), a.targets...)
}

// Catalog returns the shared seed catalog.
func (a *App) Catalog() *seed.Catalog[fixture.Store] { return a.catalog }

// SeedTargets dispatches types on the named targets, or on every target when
// names is empty. With all set, every catalog type is dispatched instead.
// Targets are seeded concurrently; the first failure cancels the context
// passed to the others and is returned.
func (a *App) SeedTargets(ctx context.Context, names []string, types []seed.EntityType, all bool) error {
	selected := a.targets
	if len(names) > 0 {
		selected = make([]*target.Target, 0, len(names))
		for _, name := range names {
			t, ok := a.byName[name]
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownTarget, name)
			}
			selected = append(selected, t)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range selected {
		g.Go(func() error {
			start := time.Now()
			var err error
			if all {
				err = t.SeedAll(gctx)
			} else {
				err = t.Seed(gctx, types...)
			}
			if err != nil {
				return err
			}
			slog.Info("target seeded", "target", t.Name(), "seeded", t.Seeded(), "elapsed", time.Since(start))
			return nil
		})
	}
	return g.Wait()
}

// Handler returns the HTTP handler serving the control API, health checks
// and any handlers added with [WithHandler].
func (a *App) Handler() http.Handler {
	checks := make([]health.Checker, 0, len(a.targets))
	for _, t := range a.targets {
		checks = append(checks, health.StoreChecker(t.Name(), t.Store()))
	}
	srv := server.New(a.catalog, a.targets, health.New(checks), a.metrics)
	for pattern, h := range a.handlers {
		srv.Handle(pattern, h)
	}
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves the control API on ln until ctx is cancelled, then drains
// in-flight requests. It returns ctx.Err() after a clean stop.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	a.srvMu.Lock()
	a.srv = srv
	a.srvMu.Unlock()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("control API listening", "addr", ln.Addr().String(), "targets", len(a.targets))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown error", "err", err)
	}
	return ctx.Err()
}

// Shutdown stops the HTTP server if it is running and closes every target in
// reverse order. If ctx expires first, the remaining targets are left open
// and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "targets", len(a.targets))

		a.srvMu.Lock()
		srv := a.srv
		a.srvMu.Unlock()
		if srv != nil {
			if err := srv.Shutdown(ctx); err != nil {
				slog.Warn("http shutdown error", "err", err)
			}
		}

		for i := len(a.targets) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			a.targets[i].Close()
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

func (a *App) closeTargets() {
	for i := len(a.targets) - 1; i >= 0; i-- {
		a.targets[i].Close()
	}
}
