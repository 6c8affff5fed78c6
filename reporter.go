package spanz

import "errors"

// ErrRejected is returned by filtering reporters that decline an event.
// The tracer treats it as a normal outcome.
var ErrRejected = errors.New("spanz: event rejected")

// Accepts declares which span events a reporter wants. The tracer only
// dispatches an event when the matching flag is set.
type Accepts struct {
	SpanCreate bool
	SpanLog    bool
	SpanFinish bool
}

// Reporter is a passive sink for span lifecycle events. Callbacks run
// synchronously on the goroutine that triggered the event, in reporter
// registration order.
type Reporter interface {
	Accepts() Accepts
	ReceiveSpanCreate(span *Span) error
	ReceiveSpanLog(span *Span, log Log) error
	ReceiveSpanFinish(span *Span) error
	// Close is called once when the reporter is removed from a tracer.
	Close() error
}

// NopReporter accepts nothing and ignores everything. Embed it to implement
// only the callbacks a reporter cares about.
type NopReporter struct{}

// Accepts implements Reporter.
func (NopReporter) Accepts() Accepts { return Accepts{} }

// ReceiveSpanCreate implements Reporter.
func (NopReporter) ReceiveSpanCreate(*Span) error { return nil }

// ReceiveSpanLog implements Reporter.
func (NopReporter) ReceiveSpanLog(*Span, Log) error { return nil }

// ReceiveSpanFinish implements Reporter.
func (NopReporter) ReceiveSpanFinish(*Span) error { return nil }

// Close implements Reporter.
func (NopReporter) Close() error { return nil }

// ReporterFunc adapts a function into a Reporter receiving the events named
// by accepts. Useful for tests and one-off sinks.
type ReporterFunc struct {
	OnCreate func(span *Span) error
	OnLog    func(span *Span, log Log) error
	OnFinish func(span *Span) error
	OnClose  func() error
	Flags    Accepts
}

// Accepts implements Reporter.
func (f *ReporterFunc) Accepts() Accepts { return f.Flags }

// ReceiveSpanCreate implements Reporter.
func (f *ReporterFunc) ReceiveSpanCreate(span *Span) error {
	if f.OnCreate == nil {
		return nil
	}
	return f.OnCreate(span)
}

// ReceiveSpanLog implements Reporter.
func (f *ReporterFunc) ReceiveSpanLog(span *Span, log Log) error {
	if f.OnLog == nil {
		return nil
	}
	return f.OnLog(span, log)
}

// ReceiveSpanFinish implements Reporter.
func (f *ReporterFunc) ReceiveSpanFinish(span *Span) error {
	if f.OnFinish == nil {
		return nil
	}
	return f.OnFinish(span)
}

// Close implements Reporter.
func (f *ReporterFunc) Close() error {
	if f.OnClose == nil {
		return nil
	}
	return f.OnClose()
}
