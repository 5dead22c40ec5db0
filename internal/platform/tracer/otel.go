package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer starts spans on an OpenTelemetry tracer.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTel returns a tracer for scope from the global provider. Until a
// provider is installed the spans are no-ops.
func NewOTel(scope string) *OTelTracer {
	return FromProvider(otel.GetTracerProvider(), scope)
}

// FromProvider returns a tracer for scope from provider.
func FromProvider(provider trace.TracerProvider, scope string) *OTelTracer {
	return &OTelTracer{tracer: provider.Tracer(scope)}
}

func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, otelSpan{span}
}

type otelSpan struct {
	trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.Span.RecordError(err)
		s.Span.SetStatus(codes.Error, err.Error())
	}
	s.Span.End()
}

func (s otelSpan) SetAttributes(attrs ...Attribute) {
	s.Span.SetAttributes(attrs...)
}

func (s otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.Span.AddEvent(name, trace.WithAttributes(attrs...))
}

var _ Tracer = (*OTelTracer)(nil)
