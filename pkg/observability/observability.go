// Package observability provides OpenTelemetry tracing and metrics for
// expression evaluation.
//
// Providers default to the otel globals, which are no-ops until an SDK is
// installed by the embedding program.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation identity.
const (
	TracerName = "github.com/lemonberrylabs/timecalc"
	MeterName  = "github.com/lemonberrylabs/timecalc"
)

// Attribute keys.
const (
	AttrExpression = "timecalc.expression"
	AttrResultType = "timecalc.result.type"
	AttrErrorTag   = "timecalc.error.tag"
	AttrCached     = "timecalc.cached"
	AttrSource     = "timecalc.source"
)

// Config selects the providers. Nil fields fall back to the otel globals.
type Config struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Instruments bundles the tracer and metric instruments used by the runtime.
type Instruments struct {
	tracer trace.Tracer

	evalDuration metric.Float64Histogram
	evalCount    metric.Int64Counter
	errorCount   metric.Int64Counter
	cacheHits    metric.Int64Counter
}

// New creates the instruments for the given configuration.
func New(cfg Config) *Instruments {
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(MeterName)
	in := &Instruments{tracer: tp.Tracer(TracerName)}

	// Instrument creation only fails on invalid names; fall back to the
	// bare instrument so recording stays safe.
	var err error
	in.evalDuration, err = meter.Float64Histogram(
		"timecalc.evaluation.duration",
		metric.WithDescription("Duration of expression evaluations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		in.evalDuration, _ = meter.Float64Histogram("timecalc.evaluation.duration")
	}

	in.evalCount, err = meter.Int64Counter(
		"timecalc.evaluation.count",
		metric.WithDescription("Total number of expression evaluations"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		in.evalCount, _ = meter.Int64Counter("timecalc.evaluation.count")
	}

	in.errorCount, err = meter.Int64Counter(
		"timecalc.error.count",
		metric.WithDescription("Total number of failed evaluations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		in.errorCount, _ = meter.Int64Counter("timecalc.error.count")
	}

	in.cacheHits, err = meter.Int64Counter(
		"timecalc.cache.hits",
		metric.WithDescription("Evaluations answered from the result cache"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		in.cacheHits, _ = meter.Int64Counter("timecalc.cache.hits")
	}

	return in
}

// StartEvaluation starts a span for evaluating an expression.
func (in *Instruments) StartEvaluation(ctx context.Context, expression, source string) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "timecalc.evaluate", trace.WithAttributes(
		attribute.String(AttrExpression, expression),
		attribute.String(AttrSource, source),
	))
}

// EndEvaluation records the outcome on the span, ends it and updates the
// metrics. errTag is empty for successful evaluations.
func (in *Instruments) EndEvaluation(ctx context.Context, span trace.Span, resultType, errTag string, cached bool, d time.Duration) {
	attrs := []attribute.KeyValue{attribute.Bool(AttrCached, cached)}
	if errTag != "" {
		attrs = append(attrs, attribute.String(AttrErrorTag, errTag))
		span.SetStatus(codes.Error, errTag)
	} else {
		attrs = append(attrs, attribute.String(AttrResultType, resultType))
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attrs...)
	span.End()

	opt := metric.WithAttributes(attrs...)
	in.evalCount.Add(ctx, 1, opt)
	in.evalDuration.Record(ctx, float64(d.Microseconds())/1000, opt)
	if errTag != "" {
		in.errorCount.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrErrorTag, errTag)))
	}
	if cached {
		in.cacheHits.Add(ctx, 1)
	}
}
