package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracer() (trace.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return provider.Tracer("test"), recorder
}

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestOperationSteps(t *testing.T) {
	tracer, recorder := newTestTracer()

	op := Start(context.Background(), tracer, "refresh", attribute.String("refresh.id", "abc"))
	if err := op.RunStep("setup", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	op.End(nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended span count = %d, want 2", len(spans))
	}
	root := findSpan(spans, "refresh")
	child := findSpan(spans, "setup")
	if root == nil || child == nil {
		t.Fatalf("spans = %v, want refresh and setup", spans)
	}
	if child.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Errorf("setup parent = %s, want %s", child.Parent().SpanID(), root.SpanContext().SpanID())
	}
}

func TestOperationStepError(t *testing.T) {
	tracer, recorder := newTestTracer()
	boom := errors.New("daemon failed")

	op := Start(context.Background(), tracer, "refresh")
	err := op.RunStep("setup", func(context.Context) error { return boom })
	op.End(err)

	if !errors.Is(err, boom) {
		t.Fatalf("RunStep() error = %v, want %v", err, boom)
	}
	for _, s := range recorder.Ended() {
		if s.Status().Code != codes.Error {
			t.Errorf("span %s status = %v, want Error", s.Name(), s.Status().Code)
		}
	}
}

func TestNilOperation(t *testing.T) {
	var op *Operation
	called := false
	if err := op.RunStep("x", func(context.Context) error { called = true; return nil }); err != nil {
		t.Fatal(err)
	}
	op.End(errors.New("ignored"))
	if !called {
		t.Error("nil operation did not run step")
	}
}

func TestLogSpanProcessor(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&logSpanProcessor{level: slog.LevelInfo}))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	op := Start(context.Background(), provider.Tracer("test"), "refresh", attribute.String("refresh.id", "abc"))
	op.End(errors.New("list interfaces: boom"))

	out := buf.String()
	for _, want := range []string{"span=refresh", "refresh.id=abc", "level=WARN", "list interfaces: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
