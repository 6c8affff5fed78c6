package reporter

import (
	"sync/atomic"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/namespace"
)

// SpanPredicate decides whether a span's events are forwarded.
type SpanPredicate func(span *spanz.Span) bool

// LogPredicate decides whether a span log is forwarded.
type LogPredicate func(span *spanz.Span, log spanz.Log) bool

// SpanFilter forwards every event of spans accepted by its predicate.
type SpanFilter struct {
	test SpanPredicate
	proxy
}

// NewSpanFilter wraps target. A nil predicate accepts everything.
func NewSpanFilter(target spanz.Reporter, predicate SpanPredicate) *SpanFilter {
	if predicate == nil {
		predicate = func(*spanz.Span) bool { return true }
	}
	f := &SpanFilter{test: predicate}
	f.init(target)
	return f
}

// ReceiveSpanCreate implements spanz.Reporter.
func (f *SpanFilter) ReceiveSpanCreate(span *spanz.Span) error {
	target, err := f.current()
	if err != nil {
		return err
	}
	if !f.test(span) {
		return spanz.ErrRejected
	}
	return target.ReceiveSpanCreate(span)
}

// ReceiveSpanLog implements spanz.Reporter.
func (f *SpanFilter) ReceiveSpanLog(span *spanz.Span, log spanz.Log) error {
	target, err := f.current()
	if err != nil {
		return err
	}
	if !f.test(span) {
		return spanz.ErrRejected
	}
	return target.ReceiveSpanLog(span, log)
}

// ReceiveSpanFinish implements spanz.Reporter.
func (f *SpanFilter) ReceiveSpanFinish(span *spanz.Span) error {
	target, err := f.current()
	if err != nil {
		return err
	}
	if !f.test(span) {
		return spanz.ErrRejected
	}
	return target.ReceiveSpanFinish(span)
}

// LogFilter forwards span creates and finishes untouched and span logs
// only when its predicate holds.
type LogFilter struct {
	test LogPredicate
	proxy
}

// NewLogFilter wraps target. A nil predicate accepts everything.
func NewLogFilter(target spanz.Reporter, predicate LogPredicate) *LogFilter {
	if predicate == nil {
		predicate = func(*spanz.Span, spanz.Log) bool { return true }
	}
	f := &LogFilter{test: predicate}
	f.init(target)
	return f
}

// ReceiveSpanCreate implements spanz.Reporter.
func (f *LogFilter) ReceiveSpanCreate(span *spanz.Span) error {
	target, err := f.current()
	if err != nil {
		return err
	}
	return target.ReceiveSpanCreate(span)
}

// ReceiveSpanLog implements spanz.Reporter.
func (f *LogFilter) ReceiveSpanLog(span *spanz.Span, log spanz.Log) error {
	target, err := f.current()
	if err != nil {
		return err
	}
	if !f.test(span, log) {
		return spanz.ErrRejected
	}
	return target.ReceiveSpanLog(span, log)
}

// ReceiveSpanFinish implements spanz.Reporter.
func (f *LogFilter) ReceiveSpanFinish(span *spanz.Span) error {
	target, err := f.current()
	if err != nil {
		return err
	}
	return target.ReceiveSpanFinish(span)
}

// LogLevelFilter forwards span logs whose level is at least as severe as
// the threshold. Logs without a known level are rejected.
type LogLevelFilter struct {
	*LogFilter
	level atomic.Value
}

// NewLogLevelFilter wraps target with a severity threshold.
func NewLogLevelFilter(target spanz.Reporter, level spanz.LogLevel) *LogLevelFilter {
	f := &LogLevelFilter{}
	f.level.Store(level)
	f.LogFilter = NewLogFilter(target, f.testLog)
	return f
}

// Level returns the current threshold.
func (f *LogLevelFilter) Level() spanz.LogLevel {
	return f.level.Load().(spanz.LogLevel)
}

// UpdateLevel replaces the threshold.
func (f *LogLevelFilter) UpdateLevel(level spanz.LogLevel) {
	f.level.Store(level)
}

func (f *LogLevelFilter) testLog(_ *spanz.Span, log spanz.Log) bool {
	level, ok := log.Level()
	if !ok {
		return false
	}
	return level.AtLeast(f.Level())
}

// SpanComponentTagFilter forwards events of spans whose component tag
// matches a namespace query such as "db:*,-db:ping". Spans without a
// component tag are rejected.
type SpanComponentTagFilter struct {
	*SpanFilter
	matcher *namespace.Matcher
}

// NewSpanComponentTagFilter wraps target with a namespace query.
func NewSpanComponentTagFilter(target spanz.Reporter, query string) *SpanComponentTagFilter {
	f := &SpanComponentTagFilter{matcher: namespace.NewMatcher(query)}
	f.SpanFilter = NewSpanFilter(target, f.testSpan)
	return f
}

// UpdateQuery replaces the namespace query.
func (f *SpanComponentTagFilter) UpdateQuery(query string) {
	f.matcher.UpdateQuery(query)
}

// Query returns the current namespace query.
func (f *SpanComponentTagFilter) Query() string {
	return f.matcher.Query()
}

func (f *SpanComponentTagFilter) testSpan(span *spanz.Span) bool {
	component, ok := componentOf(span)
	if !ok {
		return false
	}
	return f.matcher.Test(component)
}
