// Package tracer is a small tracing seam over OpenTelemetry.
//
// Services take a Tracer. Binaries pass NewOTel with their own scope name and
// tests get NewNoop by default.
package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanIssuerMint, tracer.String(tracer.AttrLessonID, id))
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a span key-value pair. It is the OpenTelemetry type, so the
// adapter hands attributes through unchanged.
type Attribute = attribute.KeyValue

func String(key, value string) Attribute { return attribute.String(key, value) }

func Bool(key string, value bool) Attribute { return attribute.Bool(key, value) }

func Int64(key string, value int64) Attribute { return attribute.Int64(key, value) }

// Duration records value in whole milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return attribute.Int64(key, value.Milliseconds())
}

// Instrumentation scopes.
const (
	ScopeIssuer  = "entangledu/issuer"
	ScopeLearner = "entangledu/learner"
)

const (
	SpanIssuerMint       = "issuer.mint"
	SpanIssuerSign       = "issuer.sign"
	SpanCredentialMint   = "credential.mint_call"
	SpanCredentialSettle = "credential.request"
)

const (
	AttrLessonID  = "lesson.id"
	AttrRecipient = "mint.recipient"
	AttrOutcome   = "credential.outcome"
	AttrLogSize   = "mint_log.size"
)
