package collector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/openzipkin/zipkin-go/model"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/transport"
)

// DefaultZipkinURL is the Zipkin HTTP API base.
const DefaultZipkinURL = "http://localhost:9411"

// SpanToZipkin converts a span snapshot into a Zipkin v2 span.
//
// The first reference of any type becomes the parent, so a FollowsFrom
// edge shows up as parent/child in Zipkin. The span.kind tag becomes the
// span kind and is removed from tags. Logs become annotations: "[level]
// message" when both are set, JSON of the fields otherwise.
func SpanToZipkin(snap spanz.Snapshot, serviceName string) (model.SpanModel, error) {
	traceID, err := model.TraceIDFromHex(snap.Context.TraceID)
	if err != nil {
		return model.SpanModel{}, fmt.Errorf("%w: trace id %q: %v", ErrInvalidID, snap.Context.TraceID, err)
	}
	id, err := zipkinID(snap.Context.SpanID)
	if err != nil {
		return model.SpanModel{}, err
	}

	span := model.SpanModel{
		SpanContext: model.SpanContext{
			TraceID: traceID,
			ID:      id,
		},
		Name:          snap.OperationName,
		Timestamp:     snap.StartTime,
		Duration:      snap.Duration(),
		LocalEndpoint: &model.Endpoint{ServiceName: serviceName},
		Tags:          make(map[string]string, len(snap.Tags)),
	}

	if len(snap.References) > 0 {
		parent, err := zipkinID(snap.References[0].Context.SpanID)
		if err != nil {
			return model.SpanModel{}, err
		}
		span.ParentID = &parent
	}

	for k, v := range snap.Tags {
		span.Tags[k] = stringify(v)
	}
	if kind, ok := span.Tags[spanz.TagSpanKind]; ok {
		span.Kind = model.Kind(strings.ToUpper(kind))
		delete(span.Tags, spanz.TagSpanKind)
	}

	for _, l := range snap.Logs {
		span.Annotations = append(span.Annotations, model.Annotation{
			Timestamp: l.Timestamp,
			Value:     annotationValue(l),
		})
	}
	return span, nil
}

func zipkinID(hex string) (model.ID, error) {
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: span id %q: %v", ErrInvalidID, hex, err)
	}
	return model.ID(v), nil
}

func annotationValue(l spanz.Log) string {
	level := stringify(l.Fields[spanz.LogFieldLevel])
	message := stringify(l.Fields[spanz.LogFieldMessage])
	if level != "" && message != "" {
		return "[" + level + "] " + message
	}
	b, err := sonic.ConfigStd.Marshal(l.Fields)
	if err != nil {
		return fmt.Sprint(l.Fields)
	}
	return string(b)
}

// Zipkin ships finished spans to a Zipkin /api/v2/spans endpoint as JSON.
type Zipkin struct {
	send        transport.SendFunc
	buffer      *Buffer[model.SpanModel]
	opts        options
	serviceName string
	spanz.NopReporter
}

// NewZipkin creates a Zipkin reporter.
func NewZipkin(send transport.SendFunc, serviceName string, opts ...Option) *Zipkin {
	o := buildOptions(DefaultZipkinURL, opts)
	return &Zipkin{
		send:        send,
		buffer:      NewBuffer[model.SpanModel](o.maxPending),
		opts:        o,
		serviceName: serviceName,
	}
}

// Accepts implements spanz.Reporter.
func (*Zipkin) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanFinish: true}
}

// ReceiveSpanFinish converts the span and buffers it.
func (r *Zipkin) ReceiveSpanFinish(span *spanz.Span) error {
	converted, err := SpanToZipkin(span.Snapshot(), r.serviceName)
	if err != nil {
		return err
	}
	if !r.buffer.Add(converted) {
		return ErrBufferFull
	}
	return nil
}

// Pending implements Flusher.
func (r *Zipkin) Pending() int {
	return r.buffer.Len()
}

// Dropped returns how many spans were dropped on a full buffer.
func (r *Zipkin) Dropped() int64 {
	return r.buffer.Dropped()
}

// Report implements Flusher.
func (r *Zipkin) Report(ctx context.Context) error {
	batch := r.buffer.Snapshot()
	if batch.Len() == 0 {
		return nil
	}
	body, err := sonic.Marshal(batch.Items)
	if err != nil {
		return fmt.Errorf("encoding zipkin batch: %w", err)
	}

	headers := mergeHeaders(map[string]string{"Content-Type": "application/json"}, r.opts.headers)
	url := r.opts.baseURL + "/api/v2/spans"

	resp, err := r.send(ctx, url, transport.Request{Method: http.MethodPost, Headers: headers, Body: body})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	if !resp.OK {
		return fmt.Errorf("%w: %s returned status %d", ErrReportFailed, url, resp.StatusCode)
	}
	r.buffer.Remove(batch)
	r.opts.logger.Debugf("reported %d spans to zipkin", batch.Len())
	return nil
}
