package observability

import (
	"context"
	"log/slog"
	"time"
)

// Span represents a tracing span.
type Span interface {
	SetAttribute(key string, value any)
	RecordError(err error)
	End() time.Duration
}

// LocalSpan is a lightweight span that reports to slog at debug level.
type LocalSpan struct {
	name       string
	startTime  time.Time
	attributes map[string]any
	err        error
}

// SetAttribute sets an attribute on the span.
func (s *LocalSpan) SetAttribute(key string, value any) {
	if s.attributes == nil {
		s.attributes = make(map[string]any)
	}
	s.attributes[key] = value
}

// RecordError records an error in the span.
func (s *LocalSpan) RecordError(err error) {
	if err != nil {
		s.err = err
	}
}

// End ends the span, logs, and returns its duration.
func (s *LocalSpan) End() time.Duration {
	d := time.Since(s.startTime)
	if s.err != nil {
		slog.Debug("Span ended with error", "span", s.name, "duration_ms", d.Milliseconds(), "error", s.err)
		return d
	}
	slog.Debug("Span ended", "span", s.name, "duration_ms", d.Milliseconds())
	return d
}

type contextKey string

const spanContextKey contextKey = "span"

// StartSpan creates a new span for a given operation.
func StartSpan(ctx context.Context, name string) (context.Context, Span) {
	span := &LocalSpan{name: name, startTime: time.Now()}
	if lc := extractLogContext(ctx); lc.RunID != "" {
		span.SetAttribute("run.id", lc.RunID)
	}
	slog.Debug("Span started", "span", name)
	return context.WithValue(ctx, spanContextKey, span), span
}

// StartStageSpan creates a span for a pipeline stage and tags the log context.
func StartStageSpan(ctx context.Context, stage string) (context.Context, Span) {
	ctx, span := StartSpan(WithStage(ctx, stage), "stage."+stage)
	span.SetAttribute("stage.name", stage)
	return ctx, span
}

// SpanFromContext extracts span from context.
func SpanFromContext(ctx context.Context) (Span, bool) {
	span, ok := ctx.Value(spanContextKey).(Span)
	return span, ok
}
