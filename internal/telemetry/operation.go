// Package telemetry wraps refreshes in OpenTelemetry spans and can mirror
// finished spans into the process log.
package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every v6share span.
const TracerName = "v6share"

// Operation is a root span with child step spans.
type Operation struct {
	ctx  context.Context
	span trace.Span
	tr   trace.Tracer
}

// Start opens the root span of an operation. A nil tracer uses the global
// provider.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) *Operation {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return &Operation{ctx: spanCtx, span: span, tr: tracer}
}

func (o *Operation) Context() context.Context {
	if o == nil {
		return context.Background()
	}
	return o.ctx
}

// SetAttributes annotates the root span.
func (o *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	if o == nil {
		return
	}
	o.span.SetAttributes(attrs...)
}

// RunStep runs fn inside a child span named id.
func (o *Operation) RunStep(id string, fn func(context.Context) error) error {
	if o == nil {
		return fn(context.Background())
	}

	stepCtx, span := o.tr.Start(o.ctx, id)
	defer span.End()

	if err := fn(stepCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

// End closes the root span, marking it failed when err is set.
func (o *Operation) End(err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	o.span.End()
}
