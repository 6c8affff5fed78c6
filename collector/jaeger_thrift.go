package collector

import (
	"fmt"

	jaegerclient "github.com/uber/jaeger-client-go"
	jaegerthrift "github.com/uber/jaeger-client-go/thrift-gen/jaeger"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/thrift"
)

// Process describes the service emitting spans.
type Process struct {
	Tags        map[string]string
	ServiceName string
}

// traceIDLow parses a hex trace id and keeps its low 64 bits.
func traceIDLow(id string) (thrift.I64, error) {
	tid, err := jaegerclient.TraceIDFromString(id)
	if err != nil {
		return thrift.I64{}, fmt.Errorf("%w: trace id %q: %v", ErrInvalidID, id, err)
	}
	return thrift.NewI64FromUint64(tid.Low), nil
}

func spanID(id string) (thrift.I64, error) {
	sid, err := jaegerclient.SpanIDFromString(id)
	if err != nil {
		return thrift.I64{}, fmt.Errorf("%w: span id %q: %v", ErrInvalidID, id, err)
	}
	return thrift.NewI64FromUint64(uint64(sid)), nil
}

// stringTag encodes a Jaeger Tag{key, vType=STRING, vStr}. Every tag and log
// field is sent in its string form.
func stringTag(key, value string) *thrift.Struct {
	return thrift.NewStruct(
		thrift.Field{ID: 1, Name: "key", Type: thrift.TypeString, Value: thrift.String(key)},
		thrift.Field{ID: 2, Name: "vType", Type: thrift.TypeI32, Value: thrift.I32(jaegerthrift.TagType_STRING)},
		thrift.Field{ID: 3, Name: "vStr", Type: thrift.TypeString, Value: thrift.String(value)},
	)
}

func tagList[V any](tags map[string]V, render func(V) string) *thrift.List {
	list := thrift.NewList(thrift.TypeStruct)
	for _, k := range sortedKeys(tags) {
		list.Append(stringTag(k, render(tags[k])))
	}
	return list
}

func refType(t spanz.ReferenceType) (thrift.I32, error) {
	switch t {
	case spanz.ChildOfRef:
		return thrift.I32(jaegerthrift.SpanRefType_CHILD_OF), nil
	case spanz.FollowsFromRef:
		return thrift.I32(jaegerthrift.SpanRefType_FOLLOWS_FROM), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedReference, t)
	}
}

// SpanToThrift converts a span snapshot into a Jaeger Span struct.
//
// The trace id high half is always zero. The parent span id comes from the
// first ChildOf reference and is zero otherwise. Tags and log fields are
// sent as string tags; times are in microseconds.
func SpanToThrift(snap spanz.Snapshot) (*thrift.Struct, error) {
	traceLow, err := traceIDLow(snap.Context.TraceID)
	if err != nil {
		return nil, err
	}
	sid, err := spanID(snap.Context.SpanID)
	if err != nil {
		return nil, err
	}

	parentID := thrift.ZeroI64
	parentSet := false
	refs := thrift.NewList(thrift.TypeStruct)
	for _, ref := range snap.References {
		rt, err := refType(ref.Type)
		if err != nil {
			return nil, err
		}
		refTrace, err := traceIDLow(ref.Context.TraceID)
		if err != nil {
			return nil, err
		}
		refSpan, err := spanID(ref.Context.SpanID)
		if err != nil {
			return nil, err
		}
		if ref.Type == spanz.ChildOfRef && !parentSet {
			parentID = refSpan
			parentSet = true
		}
		refs.Append(thrift.NewStruct(
			thrift.Field{ID: 1, Name: "refType", Type: thrift.TypeI32, Value: rt},
			thrift.Field{ID: 2, Name: "traceIdLow", Type: thrift.TypeI64, Value: refTrace},
			thrift.Field{ID: 3, Name: "traceIdHigh", Type: thrift.TypeI64, Value: thrift.ZeroI64},
			thrift.Field{ID: 4, Name: "spanId", Type: thrift.TypeI64, Value: refSpan},
		))
	}

	logs := thrift.NewList(thrift.TypeStruct)
	for _, l := range snap.Logs {
		logs.Append(thrift.NewStruct(
			thrift.Field{ID: 1, Name: "timestamp", Type: thrift.TypeI64, Value: thrift.NewI64(l.Timestamp.UnixMicro())},
			thrift.Field{ID: 2, Name: "fields", Type: thrift.TypeList, Value: tagList(l.Fields, stringify)},
		))
	}

	return thrift.NewStruct(
		thrift.Field{ID: 1, Name: "traceIdLow", Type: thrift.TypeI64, Value: traceLow},
		thrift.Field{ID: 2, Name: "traceIdHigh", Type: thrift.TypeI64, Value: thrift.ZeroI64},
		thrift.Field{ID: 3, Name: "spanId", Type: thrift.TypeI64, Value: sid},
		thrift.Field{ID: 4, Name: "parentSpanId", Type: thrift.TypeI64, Value: parentID},
		thrift.Field{ID: 5, Name: "operationName", Type: thrift.TypeString, Value: thrift.String(snap.OperationName)},
		thrift.Field{ID: 6, Name: "references", Type: thrift.TypeList, Value: refs},
		thrift.Field{ID: 7, Name: "flags", Type: thrift.TypeI32, Value: thrift.I32(0)},
		thrift.Field{ID: 8, Name: "startTime", Type: thrift.TypeI64, Value: thrift.NewI64(snap.StartTime.UnixMicro())},
		thrift.Field{ID: 9, Name: "duration", Type: thrift.TypeI64, Value: thrift.NewI64(snap.Duration().Microseconds())},
		thrift.Field{ID: 10, Name: "tags", Type: thrift.TypeList, Value: tagList(snap.Tags, stringify)},
		thrift.Field{ID: 11, Name: "logs", Type: thrift.TypeList, Value: logs},
	), nil
}

// ProcessToThrift converts a process into a Jaeger Process struct.
func ProcessToThrift(p Process) *thrift.Struct {
	return thrift.NewStruct(
		thrift.Field{ID: 1, Name: "serviceName", Type: thrift.TypeString, Value: thrift.String(p.ServiceName)},
		thrift.Field{ID: 2, Name: "tags", Type: thrift.TypeList, Value: tagList(p.Tags, func(s string) string { return s })},
	)
}

// BatchToThrift wraps a process and encoded spans into a Jaeger Batch struct.
func BatchToThrift(p Process, spans []*thrift.Struct) *thrift.Struct {
	list := thrift.NewList(thrift.TypeStruct)
	for _, s := range spans {
		list.Append(s)
	}
	return thrift.NewStruct(
		thrift.Field{ID: 1, Name: "process", Type: thrift.TypeStruct, Value: ProcessToThrift(p)},
		thrift.Field{ID: 2, Name: "spans", Type: thrift.TypeList, Value: list},
	)
}
