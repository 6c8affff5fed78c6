package spanz

import (
	"errors"
	"maps"
)

// ErrEmptyID is returned when a SpanContext is built without a trace or span id.
var ErrEmptyID = errors.New("spanz: trace id and span id must not be empty")

// SpanContext is the portable identity of a span: trace id, span id and baggage.
// Identifiers are immutable once constructed; baggage only grows.
type SpanContext struct {
	baggage map[string]string
	traceID string
	spanID  string
}

// NewSpanContext creates a context for the given identifiers.
func NewSpanContext(traceID, spanID string) (*SpanContext, error) {
	if traceID == "" || spanID == "" {
		return nil, ErrEmptyID
	}
	return &SpanContext{
		traceID: traceID,
		spanID:  spanID,
		baggage: make(map[string]string),
	}, nil
}

// TraceID returns the id shared by every span of the trace.
func (c *SpanContext) TraceID() string {
	return c.traceID
}

// SpanID returns the id unique to this span.
func (c *SpanContext) SpanID() string {
	return c.spanID
}

// AddBaggageItems merges items into the baggage. Later values overwrite
// earlier values for the same key.
func (c *SpanContext) AddBaggageItems(items map[string]string) {
	if len(items) == 0 {
		return
	}
	if c.baggage == nil {
		c.baggage = make(map[string]string, len(items))
	}
	maps.Copy(c.baggage, items)
}

// BaggageItem returns the baggage value for key.
func (c *SpanContext) BaggageItem(key string) (string, bool) {
	v, ok := c.baggage[key]
	return v, ok
}

// BaggageItems returns a copy of the baggage map.
func (c *SpanContext) BaggageItems() map[string]string {
	return maps.Clone(c.baggage)
}

// ForeachBaggageItem calls handler for each baggage item until it returns
// false. It makes SpanContext an opentracing.SpanContext.
func (c *SpanContext) ForeachBaggageItem(handler func(k, v string) bool) {
	for k, v := range c.baggage {
		if !handler(k, v) {
			return
		}
	}
}

// ContextSnapshot is the serializable form of a SpanContext.
type ContextSnapshot struct {
	Baggage map[string]string `json:"baggageItems,omitempty"`
	TraceID string            `json:"traceId"`
	SpanID  string            `json:"spanId"`
}

// Snapshot copies the context into its serializable form.
func (c *SpanContext) Snapshot() ContextSnapshot {
	s := ContextSnapshot{TraceID: c.traceID, SpanID: c.spanID}
	if len(c.baggage) > 0 {
		s.Baggage = maps.Clone(c.baggage)
	}
	return s
}
