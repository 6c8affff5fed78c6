package spanz

import "strings"

// TextMapFormatName names the text map format.
const TextMapFormatName = "text_map"

// Text map carrier keys.
const (
	TextMapTraceIDKey       = "spanz:traceId"
	TextMapSpanIDKey        = "spanz:spanId"
	TextMapBaggageKeyPrefix = "spanz:baggage:"
)

// TextMapFormat writes the trace id, the span id and one key per baggage item.
type TextMapFormat struct{}

// Name implements Format.
func (TextMapFormat) Name() string { return TextMapFormatName }

// Inject implements Format.
func (TextMapFormat) Inject(sc *SpanContext, carrier any) error {
	w, err := carrierWriter(carrier)
	if err != nil {
		return err
	}
	w.Set(TextMapTraceIDKey, sc.TraceID())
	w.Set(TextMapSpanIDKey, sc.SpanID())
	sc.ForeachBaggageItem(func(k, v string) bool {
		w.Set(TextMapBaggageKeyPrefix+k, v)
		return true
	})
	return nil
}

// Extract implements Format.
func (TextMapFormat) Extract(carrier any) (*SpanContext, error) {
	r, err := carrierReader(carrier)
	if err != nil {
		return nil, err
	}

	var traceID, spanID string
	baggage := make(map[string]string)
	err = r.ForeachKey(func(key, value string) error {
		switch {
		case strings.HasPrefix(key, TextMapBaggageKeyPrefix):
			baggage[strings.TrimPrefix(key, TextMapBaggageKeyPrefix)] = value
		case key == TextMapTraceIDKey:
			traceID = value
		case key == TextMapSpanIDKey:
			spanID = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newExtractedContext(traceID, spanID, baggage)
}
