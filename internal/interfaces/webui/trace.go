package webui

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var webTracer = otel.Tracer("puppy-bowl/internal/interfaces/webui")
var noopSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		// Untraced routes such as /healthz get no standalone root spans.
		return ctx, noopSpan
	}
	if !shouldCreateWebUISpan(name) {
		return ctx, noopSpan
	}
	return webTracer.Start(ctx, name)
}

func shouldCreateWebUISpan(name string) bool {
	return strings.HasPrefix(name, "webui.Handler.")
}
