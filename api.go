// Package spanz provides a small opentracing-style instrumentation core.
//
// spanz creates and propagates trace and span identity across process
// boundaries, accumulates span metadata and fans span lifecycle events out to
// pluggable reporters. Collector reporters in the collector package turn
// finished spans into Jaeger Thrift or Zipkin JSON batches.
//
// Core Components:
//   - Tracer: Span factory and event hub. Owns the reporter list.
//   - Span: The mutable record of one traced operation.
//   - SpanContext: Trace id, span id and baggage of a span.
//   - Reporter: Sink notified of span create, log and finish events.
//   - Format: Named inject/extract pair bound to one carrier representation.
//
// Basic Usage:
//
//	tracer := spanz.New()
//	defer tracer.Close()
//
//	tracer.AddReporter(reporter.NewInMemory())
//
//	span := tracer.StartSpan("operation-name")
//	defer span.Finish()
//
//	span.SetTag("user.id", "123")
//	span.Logger().Info("loaded user", nil)
//
//	child := tracer.StartSpan("child-operation", spanz.ChildOf(span.Context()))
//	defer child.Finish()
//
// Propagation:
//
//	headers := http.Header{}
//	tracer.Inject(span.Context(), spanz.ZipkinB3FormatName, headers)
//	remote := tracer.Extract(spanz.ZipkinB3FormatName, headers)
//
// Thread Safety:
//
// Tracer reporter registration is safe for concurrent use. Spans are NOT
// thread-safe - mutate a span from the goroutine that owns it. Event dispatch
// is synchronous and in reporter registration order, so reporters should only
// buffer on callbacks and defer network work to a separate Report call.
package spanz

import "github.com/opentracing/opentracing-go/ext"

// Key represents a span operation name.
type Key = string

// Tag represents a span tag key.
type Tag = string

// Standard tag keys, shared with opentracing's semantic conventions.
var (
	TagComponent = Tag(ext.Component)
	TagSpanKind  = Tag(ext.SpanKind)
	TagError     = Tag(ext.Error)
)
