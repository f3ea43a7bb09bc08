package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/seedkit/pkg/seed"
)

// SeedObserver implements [seed.Observer] with a span per seed run, metrics
// and a log line. It is safe to share between sessions.
type SeedObserver struct {
	metrics *Metrics
}

var _ seed.Observer = (*SeedObserver)(nil)

// NewSeedObserver returns a [SeedObserver] recording into m. A nil m uses
// [DefaultMetrics].
func NewSeedObserver(m *Metrics) *SeedObserver {
	if m == nil {
		m = DefaultMetrics()
	}
	return &SeedObserver{metrics: m}
}

// SeedStarted starts a "seed <entity type>" span.
func (o *SeedObserver) SeedStarted(ctx context.Context, t seed.EntityType, name string) context.Context {
	ctx, _ = StartSeedSpan(ctx, t, name)
	return ctx
}

// SeedFinished ends the span started by SeedStarted and records metrics.
func (o *SeedObserver) SeedFinished(ctx context.Context, t seed.EntityType, name string, elapsed time.Duration, err error) {
	EndSpan(trace.SpanFromContext(ctx), err)
	status := "ok"
	if err != nil {
		status = "error"
	}

	o.metrics.RecordSeedRun(ctx, string(t), name, status, elapsed.Seconds())

	log := Logger(ctx)
	if err != nil {
		log.Warn("seed failed", "entity_type", t, "seed", name, "elapsed", elapsed, "err", err)
		return
	}
	log.Info("seed completed", "entity_type", t, "seed", name, "elapsed", elapsed)
}

// DispatchSkipped records a no-op dispatch.
func (o *SeedObserver) DispatchSkipped(ctx context.Context, t seed.EntityType, reason seed.SkipReason) {
	o.metrics.RecordDispatchSkipped(ctx, string(t), string(reason))
	Logger(ctx).Debug("dispatch skipped", "entity_type", t, "reason", reason)
}
