package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/seedkit/pkg/seed"
)

// tracerName is the instrumentation scope name for the seedkit tracer.
const tracerName = "github.com/MrWong99/seedkit"

// Span attribute keys for seed runs.
const (
	AttrEntityType = attribute.Key("seed.entity_type")
	AttrSeedName   = attribute.Key("seed.name")
	AttrTarget     = attribute.Key("seed.target")
)

// Tracer returns the seedkit tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span. The caller must call span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// StartSeedSpan starts the "seed <entity type>" span for one seed run. A
// seed that requires another type yields nested spans under the same trace.
func StartSeedSpan(ctx context.Context, t seed.EntityType, name string) (context.Context, trace.Span) {
	return StartSpan(ctx, "seed "+string(t),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrEntityType.String(string(t)),
			AttrSeedName.String(name),
		),
	)
}

// EndSpan marks span as failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID returns the trace ID of the span in ctx, or "".
func CorrelationID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id and span_id attached when
// ctx carries a valid span.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
