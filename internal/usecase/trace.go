package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var controllerTracer = otel.Tracer("puppy-bowl/internal/usecase")

// startActionSpan only opens a child span when the caller is already traced,
// so background or test calls stay span-free.
func startActionSpan(ctx context.Context, action string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	attrs = append(attrs, attribute.String("roster.action", action))
	return controllerTracer.Start(ctx, "usecase.RosterController."+action, trace.WithAttributes(attrs...))
}
