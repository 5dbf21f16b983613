package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// LogOutput owns a tracer provider that writes every finished span to slog.
type LogOutput struct {
	provider *sdktrace.TracerProvider
}

// NewLogOutput creates the provider and installs it as the global one.
func NewLogOutput(level slog.Level) *LogOutput {
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&logSpanProcessor{level: level}))
	otel.SetTracerProvider(provider)
	return &LogOutput{provider: provider}
}

func (o *LogOutput) Tracer() trace.Tracer {
	if o == nil || o.provider == nil {
		return otel.Tracer(TracerName)
	}
	return o.provider.Tracer(TracerName)
}

func (o *LogOutput) Close(ctx context.Context) error {
	if o == nil || o.provider == nil {
		return nil
	}
	return o.provider.Shutdown(ctx)
}

type logSpanProcessor struct {
	level slog.Level
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := []any{
		"span", s.Name(),
		"trace_id", s.SpanContext().TraceID().String(),
		"duration", s.EndTime().Sub(s.StartTime()),
	}
	if s.Parent().IsValid() {
		args = append(args, "parent_id", s.Parent().SpanID().String())
	}
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}

	level := p.level
	if s.Status().Code == codes.Error {
		level = max(level, slog.LevelWarn)
		args = append(args, "status", s.Status().Description)
	}
	slog.Log(context.Background(), level, "Span finished.", args...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
