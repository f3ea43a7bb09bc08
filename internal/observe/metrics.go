// Package observe provides observability primitives for seedkit:
// OpenTelemetry metrics, tracing, trace-aware logging, a [seed.Observer]
// that ties them to seed runs, and HTTP middleware.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// wires a Prometheus exporter so they can be scraped from /metrics. Tests
// should use [NewMetrics] with their own [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all seedkit metrics.
const meterName = "github.com/MrWong99/seedkit"

// Metrics holds the OpenTelemetry instruments for the application. All
// fields are safe for concurrent use.
type Metrics struct {
	// SeedRuns counts seed executions. Attributes: entity_type, seed, status.
	SeedRuns metric.Int64Counter

	// SeedDuration tracks how long a single seed takes. Attributes:
	// entity_type, seed.
	SeedDuration metric.Float64Histogram

	// DispatchSkipped counts dispatch requests that ran nothing. Attributes:
	// entity_type, reason.
	DispatchSkipped metric.Int64Counter

	// HTTPRequestDuration tracks control API latency. Attributes: method, path.
	HTTPRequestDuration metric.Float64Histogram
}

// seedBuckets are histogram boundaries in seconds. Fixture inserts are
// usually quick but large seeds against remote databases can take a while.
var seedBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30,
}

// NewMetrics creates all instruments using mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SeedRuns, err = m.Int64Counter("seedkit.seed.runs",
		metric.WithDescription("Total seed executions by entity type, seed, and status."),
	); err != nil {
		return nil, err
	}
	if met.SeedDuration, err = m.Float64Histogram("seedkit.seed.duration",
		metric.WithDescription("Latency of a single seed execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(seedBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DispatchSkipped, err = m.Int64Counter("seedkit.dispatch.skipped",
		metric.WithDescription("Dispatch requests that ran no seed, by entity type and reason."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("seedkit.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call from [otel.GetMeterProvider]. Panics if instrument creation
// fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSeedRun records one seed execution.
func (m *Metrics) RecordSeedRun(ctx context.Context, entityType, seedName, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("entity_type", entityType),
		attribute.String("seed", seedName),
	)
	m.SeedDuration.Record(ctx, seconds, attrs)
	m.SeedRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity_type", entityType),
		attribute.String("seed", seedName),
		attribute.String("status", status),
	))
}

// RecordDispatchSkipped records a dispatch request that ran nothing.
func (m *Metrics) RecordDispatchSkipped(ctx context.Context, entityType, reason string) {
	m.DispatchSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity_type", entityType),
		attribute.String("reason", reason),
	))
}
