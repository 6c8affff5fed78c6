package spanz

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opentracing/opentracing-go"
)

var (
	// ErrInvalidCarrier is returned when a carrier is not a mutable key/value map.
	ErrInvalidCarrier = errors.New("spanz: carrier is not a key/value map")

	// ErrContextNotFound is returned by Extract when the carrier lacks a
	// trace id or a span id.
	ErrContextNotFound = errors.New("spanz: span context not found in carrier")
)

// Format is a stateless inject/extract pair bound to one wire representation.
//
// Carriers may be map[string]string, http.Header or any opentracing
// TextMapWriter (inject) / TextMapReader (extract). Inject never mutates an
// invalid carrier, and Extract never returns a half-valid context.
type Format interface {
	Name() string
	Inject(sc *SpanContext, carrier any) error
	Extract(carrier any) (*SpanContext, error)
}

func defaultFormats() []Format {
	return []Format{TextMapFormat{}, JaegerFormat{}, ZipkinB3Format{}}
}

func carrierWriter(carrier any) (opentracing.TextMapWriter, error) {
	switch c := carrier.(type) {
	case map[string]string:
		if c == nil {
			return nil, fmt.Errorf("%w: nil map", ErrInvalidCarrier)
		}
		return opentracing.TextMapCarrier(c), nil
	case http.Header:
		if c == nil {
			return nil, fmt.Errorf("%w: nil header", ErrInvalidCarrier)
		}
		return opentracing.HTTPHeadersCarrier(c), nil
	case opentracing.TextMapWriter:
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidCarrier, carrier)
	}
}

func carrierReader(carrier any) (opentracing.TextMapReader, error) {
	switch c := carrier.(type) {
	case map[string]string:
		return opentracing.TextMapCarrier(c), nil
	case http.Header:
		return opentracing.HTTPHeadersCarrier(c), nil
	case opentracing.TextMapReader:
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidCarrier, carrier)
	}
}

// setFold sets key on w, reusing an existing key that matches
// case-insensitively when w can also be read.
func setFold(w opentracing.TextMapWriter, key, value string) {
	if r, ok := w.(opentracing.TextMapReader); ok {
		existing := ""
		_ = r.ForeachKey(func(k, _ string) error {
			if existing == "" && strings.EqualFold(k, key) {
				existing = k
			}
			return nil
		})
		if existing != "" {
			key = existing
		}
	}
	w.Set(key, value)
}

func newExtractedContext(traceID, spanID string, baggage map[string]string) (*SpanContext, error) {
	if traceID == "" || spanID == "" {
		return nil, ErrContextNotFound
	}
	sc, err := NewSpanContext(traceID, spanID)
	if err != nil {
		return nil, err
	}
	sc.AddBaggageItems(baggage)
	return sc, nil
}
