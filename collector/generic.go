package collector

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/transport"
)

// DefaultGenericURL is the generic collector API root.
const DefaultGenericURL = "http://localhost:7855"

// Encoding selects the generic collector body format.
type Encoding int

// Supported encodings.
const (
	EncodingJSON Encoding = iota
	EncodingMsgpack
)

// ContentType returns the MIME type of the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingMsgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// GenericLog is a span log with a millisecond timestamp.
type GenericLog struct {
	Fields    map[string]any `json:"fields"`
	Timestamp int64          `json:"timestamp"`
}

// GenericSpan is the generic collector's span document. Times are
// milliseconds since the Unix epoch.
type GenericSpan struct {
	Tags          map[string]any            `json:"tags"`
	Context       spanz.ContextSnapshot     `json:"context"`
	OperationName string                    `json:"operationName"`
	References    []spanz.ReferenceSnapshot `json:"references"`
	Logs          []GenericLog              `json:"logs"`
	StartTime     int64                     `json:"startTime"`
	FinishTime    int64                     `json:"finishTime"`
}

// GenericBatch is the body posted to {root}/batch.
type GenericBatch struct {
	Tags        map[string]string `json:"tags"`
	ServiceName string            `json:"serviceName"`
	Spans       []GenericSpan     `json:"spans"`
}

// SpanToGeneric converts a span snapshot into a generic collector document.
func SpanToGeneric(snap spanz.Snapshot) GenericSpan {
	out := GenericSpan{
		Context:       snap.Context,
		OperationName: snap.OperationName,
		StartTime:     snap.StartTime.UnixMilli(),
		References:    snap.References,
		Tags:          snap.Tags,
		Logs:          make([]GenericLog, 0, len(snap.Logs)),
	}
	if !snap.FinishTime.IsZero() {
		out.FinishTime = snap.FinishTime.UnixMilli()
	}
	for _, l := range snap.Logs {
		out.Logs = append(out.Logs, GenericLog{Fields: l.Fields, Timestamp: l.Timestamp.UnixMilli()})
	}
	return out
}

// Generic ships finished spans to a generic collector's /batch endpoint.
type Generic struct {
	send        transport.SendFunc
	buffer      *Buffer[GenericSpan]
	tags        map[string]string
	opts        options
	serviceName string
	spanz.NopReporter
}

// NewGeneric creates a generic collector reporter.
func NewGeneric(send transport.SendFunc, serviceName string, tags map[string]string, opts ...Option) *Generic {
	o := buildOptions(DefaultGenericURL, opts)
	tags = maps.Clone(tags)
	if tags == nil {
		tags = make(map[string]string)
	}
	return &Generic{
		send:        send,
		buffer:      NewBuffer[GenericSpan](o.maxPending),
		tags:        tags,
		opts:        o,
		serviceName: serviceName,
	}
}

// Accepts implements spanz.Reporter.
func (*Generic) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanFinish: true}
}

// ReceiveSpanFinish buffers the span.
func (r *Generic) ReceiveSpanFinish(span *spanz.Span) error {
	if !r.buffer.Add(SpanToGeneric(span.Snapshot())) {
		return ErrBufferFull
	}
	return nil
}

// Pending implements Flusher.
func (r *Generic) Pending() int {
	return r.buffer.Len()
}

// Dropped returns how many spans were dropped on a full buffer.
func (r *Generic) Dropped() int64 {
	return r.buffer.Dropped()
}

func (r *Generic) encode(batch GenericBatch) ([]byte, error) {
	if r.opts.encoding == EncodingMsgpack {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(batch); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return sonic.Marshal(batch)
}

// Report implements Flusher.
func (r *Generic) Report(ctx context.Context) error {
	batch := r.buffer.Snapshot()
	if batch.Len() == 0 {
		return nil
	}
	body, err := r.encode(GenericBatch{ServiceName: r.serviceName, Tags: r.tags, Spans: batch.Items})
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	headers := mergeHeaders(map[string]string{"Content-Type": r.opts.encoding.ContentType()}, r.opts.headers)
	url := r.opts.baseURL + "/batch"

	resp, err := r.send(ctx, url, transport.Request{Method: http.MethodPost, Headers: headers, Body: body})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	if !resp.OK {
		return fmt.Errorf("%w: %s returned status %d", ErrReportFailed, url, resp.StatusCode)
	}
	r.buffer.Remove(batch)
	r.opts.logger.Debugf("reported %d spans to collector", batch.Len())
	return nil
}
