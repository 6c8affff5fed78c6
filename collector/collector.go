// Package collector contains reporters that batch finished spans and ship
// them to a tracing backend: Jaeger (Thrift over HTTP), Zipkin (JSON v2) and
// a generic JSON/msgpack batch endpoint.
//
// Reporters only buffer on span finish. Network I/O happens in Report,
// which snapshots the pending spans, sends them, and on success removes
// exactly the snapshotted spans. Spans finished during a send stay pending.
// On failure nothing is removed, so a later Report retries them. Two
// overlapping Report calls may send the same spans twice.
//
// Report is usually driven by AutoFlush:
//
//	jaeger := collector.NewJaeger(client.Send, collector.Process{ServiceName: "api"})
//	tracer.AddReporter(jaeger)
//	go collector.AutoFlush(ctx, time.Second, clockz.RealClock, logger, jaeger)
package collector

import (
	"context"
	"errors"
	"maps"

	"github.com/zoobzio/spanz/internal/logging"
)

var (
	// ErrUnsupportedReference is returned when a span carries a reference
	// type the Jaeger model cannot express.
	ErrUnsupportedReference = errors.New("collector: unsupported reference type")

	// ErrInvalidID is returned when a trace or span id is not hexadecimal.
	ErrInvalidID = errors.New("collector: invalid id")

	// ErrReportFailed is returned when the collector did not accept a batch.
	ErrReportFailed = errors.New("collector: report failed")

	// ErrBufferFull is returned when a finished span is dropped because the
	// pending buffer is at capacity.
	ErrBufferFull = errors.New("collector: pending buffer full")
)

// DefaultMaxPending bounds each reporter's pending buffer.
const DefaultMaxPending = 10000

// Flusher is a reporter with pending spans to ship.
type Flusher interface {
	// Report sends the pending spans once.
	Report(ctx context.Context) error
	// Pending returns the number of spans waiting to be sent.
	Pending() int
}

type options struct {
	headers    map[string]string
	logger     logging.Logger
	baseURL    string
	maxPending int
	encoding   Encoding
}

// Option configures a collector reporter.
type Option func(*options)

// WithBaseURL overrides the collector's base URL.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHeaders adds headers to every report request. They override the
// reporter's own headers.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		maps.Copy(o.headers, headers)
	}
}

// WithMaxPending bounds the pending buffer. Zero or less means unbounded.
func WithMaxPending(n int) Option {
	return func(o *options) {
		o.maxPending = n
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEncoding selects the generic collector body encoding.
func WithEncoding(e Encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

func buildOptions(baseURL string, opts []Option) options {
	o := options{
		baseURL:    baseURL,
		maxPending: DefaultMaxPending,
		logger:     logging.NewDefault(),
		encoding:   EncodingJSON,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func mergeHeaders(base, extra map[string]string) map[string]string {
	out := maps.Clone(base)
	maps.Copy(out, extra)
	return out
}
