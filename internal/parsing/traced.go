package parsing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

const tracerName = "github.com/mvp-joe/cortex-codesearch/internal/parsing"

// Traced wraps each TryParse call in a span.
type Traced struct {
	inner  Service
	tracer trace.Tracer
}

// NewTraced wraps inner. A nil provider records nothing.
func NewTraced(inner Service, tp trace.TracerProvider) *Traced {
	mustInner("tracing", inner)
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Traced{inner: inner, tracer: tp.Tracer(tracerName)}
}

// WithTracing returns a Decorator that adds a Traced layer.
func WithTracing(tp trace.TracerProvider) Decorator {
	return func(inner Service) Service { return NewTraced(inner, tp) }
}

// Exclusions forwards to the inner service.
func (t *Traced) Exclusions() []string { return t.inner.Exclusions() }

// SetExclusions forwards to the inner service.
func (t *Traced) SetExclusions(patterns []string) { t.inner.SetExclusions(patterns) }

// Analyzer forwards to the inner service.
func (t *Traced) Analyzer() analysis.Analyzer { return t.inner.Analyzer() }

// Unwrap returns the inner service.
func (t *Traced) Unwrap() Service { return t.inner }

// TryParse delegates inside a "parsing.TryParse" span.
func (t *Traced) TryParse(ctx context.Context, file File) (*document.Document, bool) {
	ctx, span := t.tracer.Start(ctx, "parsing.TryParse",
		trace.WithAttributes(attribute.String("file.path", file.Path())))
	defer span.End()

	doc, ok := t.inner.TryParse(ctx, file)

	span.SetAttributes(attribute.Bool("parse.success", ok))
	if ok {
		span.SetAttributes(attribute.Int("document.fields", doc.Len()))
	} else {
		span.SetStatus(codes.Error, "parse failed")
	}
	return doc, ok
}
