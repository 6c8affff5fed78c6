package spanz

import (
	"strings"

	jaeger "github.com/uber/jaeger-client-go"
)

// JaegerFormatName names the Jaeger single-header format.
const JaegerFormatName = "jaeger_format"

// JaegerHeader is the Jaeger trace context header.
const JaegerHeader = jaeger.TraceContextHeaderName

// JaegerFormat writes "{trace-id}:{span-id}:{parent-span-id}:{flags}" into
// one header. The parent id is unknown here and always 0; flags are always 1
// (sampled). Baggage is not carried.
type JaegerFormat struct{}

// Name implements Format.
func (JaegerFormat) Name() string { return JaegerFormatName }

// Inject implements Format.
func (JaegerFormat) Inject(sc *SpanContext, carrier any) error {
	w, err := carrierWriter(carrier)
	if err != nil {
		return err
	}
	setFold(w, JaegerHeader, sc.TraceID()+":"+sc.SpanID()+":0:1")
	return nil
}

// Extract implements Format. Header values without exactly four parts are
// skipped and scanning continues.
func (JaegerFormat) Extract(carrier any) (*SpanContext, error) {
	r, err := carrierReader(carrier)
	if err != nil {
		return nil, err
	}

	var traceID, spanID string
	err = r.ForeachKey(func(key, value string) error {
		if !strings.EqualFold(key, JaegerHeader) {
			return nil
		}
		parts := strings.Split(value, ":")
		if len(parts) != 4 {
			return nil
		}
		traceID, spanID = parts[0], parts[1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newExtractedContext(traceID, spanID, nil)
}
