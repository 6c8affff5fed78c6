// Package opentracer exposes a spanz Tracer through the opentracing-go API,
// so libraries instrumented against opentracing report into spanz reporters.
//
//	ot := opentracer.New(tracer)
//	opentracing.SetGlobalTracer(ot)
package opentracer

import (
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/zoobzio/spanz"
)

// Tracer implements opentracing.Tracer on top of a spanz Tracer.
type Tracer struct {
	tracer *spanz.Tracer
}

// New wraps tracer. A nil tracer means spanz.GlobalTracer().
func New(tracer *spanz.Tracer) *Tracer {
	if tracer == nil {
		tracer = spanz.GlobalTracer()
	}
	return &Tracer{tracer: tracer}
}

// Unwrap returns the underlying spanz tracer.
func (t *Tracer) Unwrap() *spanz.Tracer {
	return t.tracer
}

// StartSpan implements opentracing.Tracer. References to contexts that did
// not come from spanz are ignored.
func (t *Tracer) StartSpan(operationName string, opts ...opentracing.StartSpanOption) opentracing.Span {
	var o opentracing.StartSpanOptions
	for _, opt := range opts {
		opt.Apply(&o)
	}

	so := spanz.SpanOptions{
		StartTime: o.StartTime,
		Tags:      o.Tags,
	}
	for _, ref := range o.References {
		sc, ok := ref.ReferencedContext.(*spanz.SpanContext)
		if !ok || sc == nil {
			continue
		}
		rt := spanz.ChildOfRef
		if ref.Type == opentracing.FollowsFromRef {
			rt = spanz.FollowsFromRef
		}
		so.References = append(so.References, spanz.Reference{Context: sc, Type: rt})
	}
	return &Span{span: t.tracer.StartSpanWithOptions(operationName, so), tracer: t}
}

// formatName maps an opentracing builtin format or a spanz format name to
// a registered spanz format.
func (t *Tracer) formatName(format any) (string, error) {
	switch f := format.(type) {
	case opentracing.BuiltinFormat:
		switch f {
		case opentracing.TextMap:
			return spanz.TextMapFormatName, nil
		case opentracing.HTTPHeaders:
			return spanz.JaegerFormatName, nil
		}
	case string:
		if _, ok := t.tracer.Format(f); ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %v", opentracing.ErrUnsupportedFormat, format)
}

// Inject implements opentracing.Tracer.
func (t *Tracer) Inject(sm opentracing.SpanContext, format, carrier any) error {
	sc, ok := sm.(*spanz.SpanContext)
	if !ok || sc == nil {
		return opentracing.ErrInvalidSpanContext
	}
	name, err := t.formatName(format)
	if err != nil {
		return err
	}
	f, _ := t.tracer.Format(name)
	if err := f.Inject(sc, carrier); err != nil {
		if errors.Is(err, spanz.ErrInvalidCarrier) {
			return opentracing.ErrInvalidCarrier
		}
		return err
	}
	return nil
}

// Extract implements opentracing.Tracer.
func (t *Tracer) Extract(format, carrier any) (opentracing.SpanContext, error) {
	name, err := t.formatName(format)
	if err != nil {
		return nil, err
	}
	f, _ := t.tracer.Format(name)
	sc, err := f.Extract(carrier)
	switch {
	case errors.Is(err, spanz.ErrContextNotFound):
		return nil, opentracing.ErrSpanContextNotFound
	case errors.Is(err, spanz.ErrInvalidCarrier):
		return nil, opentracing.ErrInvalidCarrier
	case errors.Is(err, spanz.ErrEmptyID):
		return nil, opentracing.ErrSpanContextCorrupted
	case err != nil:
		return nil, err
	}
	return sc, nil
}

// Span implements opentracing.Span.
type Span struct {
	span   *spanz.Span
	tracer *Tracer
}

// Unwrap returns the underlying spanz span.
func (s *Span) Unwrap() *spanz.Span {
	return s.span
}

// Finish implements opentracing.Span.
func (s *Span) Finish() {
	s.span.Finish()
}

// FinishWithOptions implements opentracing.Span. Log records are appended
// before the span finishes.
func (s *Span) FinishWithOptions(opts opentracing.FinishOptions) {
	for _, rec := range opts.LogRecords {
		s.logAt(rec.Timestamp, rec.Fields)
	}
	for _, ld := range opts.BulkLogData {
		rec := ld.ToLogRecord()
		s.logAt(rec.Timestamp, rec.Fields)
	}
	s.span.FinishAt(opts.FinishTime)
}

// Context implements opentracing.Span.
func (s *Span) Context() opentracing.SpanContext {
	return s.span.Context()
}

// SetOperationName implements opentracing.Span.
func (s *Span) SetOperationName(operationName string) opentracing.Span {
	s.span.SetOperationName(operationName)
	return s
}

// SetTag implements opentracing.Span.
func (s *Span) SetTag(key string, value any) opentracing.Span {
	s.span.SetTag(key, value)
	return s
}

// LogFields implements opentracing.Span.
func (s *Span) LogFields(fields ...log.Field) {
	s.logAt(time.Time{}, fields)
}

// LogKV implements opentracing.Span. Malformed key/value lists are logged
// as an error entry.
func (s *Span) LogKV(alternatingKeyValues ...any) {
	fields, err := log.InterleavedKVToFields(alternatingKeyValues...)
	if err != nil {
		s.LogFields(log.String(spanz.LogFieldEvent, "error"), log.Error(err), log.String("function", "LogKV"))
		return
	}
	s.LogFields(fields...)
}

func (s *Span) logAt(at time.Time, fields []log.Field) {
	if len(fields) == 0 {
		return
	}
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key()] = f.Value()
	}
	s.span.LogAt(m, at)
}

// SetBaggageItem implements opentracing.Span.
func (s *Span) SetBaggageItem(restrictedKey, value string) opentracing.Span {
	s.span.Context().AddBaggageItems(map[string]string{restrictedKey: value})
	return s
}

// BaggageItem implements opentracing.Span.
func (s *Span) BaggageItem(restrictedKey string) string {
	v, _ := s.span.Context().BaggageItem(restrictedKey)
	return v
}

// Tracer implements opentracing.Span.
func (s *Span) Tracer() opentracing.Tracer {
	return s.tracer
}

// LogEvent implements the deprecated opentracing.Span method.
func (s *Span) LogEvent(event string) {
	s.LogFields(log.String(spanz.LogFieldEvent, event))
}

// LogEventWithPayload implements the deprecated opentracing.Span method.
func (s *Span) LogEventWithPayload(event string, payload any) {
	s.LogFields(log.String(spanz.LogFieldEvent, event), log.Object(spanz.LogFieldPayload, payload))
}

// Log implements the deprecated opentracing.Span method.
func (s *Span) Log(data opentracing.LogData) {
	rec := data.ToLogRecord()
	s.logAt(rec.Timestamp, rec.Fields)
}

var (
	_ opentracing.Tracer      = (*Tracer)(nil)
	_ opentracing.Span        = (*Span)(nil)
	_ opentracing.SpanContext = (*spanz.SpanContext)(nil)
)
