package collector

import (
	"context"
	"fmt"
	"maps"
	"net/http"

	"github.com/google/uuid"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/thrift"
	"github.com/zoobzio/spanz/transport"
)

// DefaultJaegerURL is the Jaeger collector HTTP endpoint base.
const DefaultJaegerURL = "http://localhost:14268"

// ClientUUIDTag identifies one reporter instance among processes sharing a
// service name.
const ClientUUIDTag = "client-uuid"

// Jaeger ships finished spans to a Jaeger collector's /api/traces endpoint
// as Thrift binary batches.
type Jaeger struct {
	send    transport.SendFunc
	buffer  *Buffer[*thrift.Struct]
	opts    options
	process Process
	spanz.NopReporter
}

// NewJaeger creates a Jaeger reporter. Process tags get a client-uuid
// unless one is provided.
func NewJaeger(send transport.SendFunc, process Process, opts ...Option) *Jaeger {
	o := buildOptions(DefaultJaegerURL, opts)
	process.Tags = maps.Clone(process.Tags)
	if process.Tags == nil {
		process.Tags = make(map[string]string)
	}
	if _, ok := process.Tags[ClientUUIDTag]; !ok {
		process.Tags[ClientUUIDTag] = uuid.NewString()
	}
	return &Jaeger{
		send:    send,
		buffer:  NewBuffer[*thrift.Struct](o.maxPending),
		opts:    o,
		process: process,
	}
}

// Accepts implements spanz.Reporter.
func (*Jaeger) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanFinish: true}
}

// ReceiveSpanFinish converts the span and buffers it.
func (r *Jaeger) ReceiveSpanFinish(span *spanz.Span) error {
	encoded, err := SpanToThrift(span.Snapshot())
	if err != nil {
		return err
	}
	if !r.buffer.Add(encoded) {
		return ErrBufferFull
	}
	return nil
}

// Process returns the process descriptor sent with every batch.
func (r *Jaeger) Process() Process {
	p := r.process
	p.Tags = maps.Clone(p.Tags)
	return p
}

// Pending implements Flusher.
func (r *Jaeger) Pending() int {
	return r.buffer.Len()
}

// Dropped returns how many spans were dropped on a full buffer.
func (r *Jaeger) Dropped() int64 {
	return r.buffer.Dropped()
}

// Encode builds the Thrift body for the currently pending spans.
func (r *Jaeger) Encode() ([]byte, error) {
	body, _, err := r.encode()
	return body, err
}

func (r *Jaeger) encode() ([]byte, Batch[*thrift.Struct], error) {
	batch := r.buffer.Snapshot()
	body, err := thrift.Encode(BatchToThrift(r.process, batch.Items))
	if err != nil {
		return nil, batch, fmt.Errorf("encoding jaeger batch: %w", err)
	}
	return body, batch, nil
}

// Report implements Flusher.
func (r *Jaeger) Report(ctx context.Context) error {
	body, batch, err := r.encode()
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}

	headers := mergeHeaders(map[string]string{
		"Content-Type": "application/x-thrift",
		"Connection":   "keep-alive",
	}, r.opts.headers)
	url := r.opts.baseURL + "/api/traces"

	resp, err := r.send(ctx, url, transport.Request{Method: http.MethodPost, Headers: headers, Body: body})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	if !resp.OK {
		return fmt.Errorf("%w: %s returned status %d", ErrReportFailed, url, resp.StatusCode)
	}
	r.buffer.Remove(batch)
	r.opts.logger.Debugf("reported %d spans to jaeger", batch.Len())
	return nil
}
