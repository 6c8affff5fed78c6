package spanz

import "context"

// spanKeyType is a private type for context keys to avoid collisions.
type spanKeyType string

const spanKey spanKeyType = "spanz"

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey, span)
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	if span, ok := ctx.Value(spanKey).(*Span); ok {
		return span
	}
	return nil
}

// StartSpanFromContext starts a span as a child of the span in ctx, if any,
// and returns a context carrying the new span. A nil tracer falls back to the
// parent's tracer and then to GlobalTracer.
func StartSpanFromContext(ctx context.Context, tracer *Tracer, operationName Key, opts ...SpanOption) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	if parent != nil {
		opts = append([]SpanOption{ChildOf(parent.Context())}, opts...)
		if tracer == nil {
			tracer = parent.Tracer()
		}
	}
	if tracer == nil {
		tracer = GlobalTracer()
	}
	span := tracer.StartSpan(operationName, opts...)
	return ContextWithSpan(ctx, span), span
}
