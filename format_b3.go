package spanz

import (
	"strings"

	"github.com/openzipkin/zipkin-go/propagation/b3"
)

// ZipkinB3FormatName names the Zipkin B3 multi-header format.
const ZipkinB3FormatName = "zipkin_b3_format"

// B3 header names as written on inject.
const (
	B3TraceIDHeader = "X-B3-TraceId"
	B3SpanIDHeader  = "X-B3-SpanId"
)

// ZipkinB3Format carries the trace and span ids verbatim in two headers,
// matched case-insensitively on both inject and extract.
// See https://github.com/openzipkin/b3-propagation.
type ZipkinB3Format struct{}

// Name implements Format.
func (ZipkinB3Format) Name() string { return ZipkinB3FormatName }

// Inject implements Format.
func (ZipkinB3Format) Inject(sc *SpanContext, carrier any) error {
	w, err := carrierWriter(carrier)
	if err != nil {
		return err
	}
	setFold(w, B3TraceIDHeader, sc.TraceID())
	setFold(w, B3SpanIDHeader, sc.SpanID())
	return nil
}

// Extract implements Format.
func (ZipkinB3Format) Extract(carrier any) (*SpanContext, error) {
	r, err := carrierReader(carrier)
	if err != nil {
		return nil, err
	}

	var traceID, spanID string
	err = r.ForeachKey(func(key, value string) error {
		switch {
		case strings.EqualFold(key, b3.TraceID):
			traceID = value
		case strings.EqualFold(key, b3.SpanID):
			spanID = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newExtractedContext(traceID, spanID, nil)
}
