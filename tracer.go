package spanz

import (
	"errors"
	"maps"
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/zoobzio/clockz"

	"github.com/zoobzio/spanz/internal/logging"
)

// ErrUnknownFormat is reported when inject or extract names an unregistered format.
var ErrUnknownFormat = errors.New("spanz: unknown carrier format")

// SpanOptions describe how a span starts.
type SpanOptions struct {
	StartTime  time.Time
	Tags       map[Tag]any
	References []Reference
	// IgnoreBaggage stops the first reference's baggage from being copied
	// into the new span's context.
	IgnoreBaggage bool
}

// SpanOption configures SpanOptions.
type SpanOption func(*SpanOptions)

// ChildOf references a parent context. A nil context is ignored.
func ChildOf(parent *SpanContext) SpanOption {
	return WithReference(Reference{Type: ChildOfRef, Context: parent})
}

// FollowsFrom references a preceding context. A nil context is ignored.
func FollowsFrom(prev *SpanContext) SpanOption {
	return WithReference(Reference{Type: FollowsFromRef, Context: prev})
}

// WithReference appends a reference of any type.
func WithReference(ref Reference) SpanOption {
	return func(o *SpanOptions) {
		if ref.Context == nil {
			return
		}
		o.References = append(o.References, ref)
	}
}

// WithTags merges tags into the span at creation.
func WithTags(tags map[Tag]any) SpanOption {
	return func(o *SpanOptions) {
		if o.Tags == nil {
			o.Tags = make(map[Tag]any, len(tags))
		}
		maps.Copy(o.Tags, tags)
	}
}

// WithTag sets one tag at creation.
func WithTag(key Tag, value any) SpanOption {
	return WithTags(map[Tag]any{key: value})
}

// WithStartTime overrides the start time.
func WithStartTime(at time.Time) SpanOption {
	return func(o *SpanOptions) {
		o.StartTime = at
	}
}

// WithoutBaggage skips baggage inheritance from the first reference.
func WithoutBaggage() SpanOption {
	return func(o *SpanOptions) {
		o.IgnoreBaggage = true
	}
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithClock sets the tracer clock. Enables deterministic testing.
func WithClock(clock clockz.Clock) Option {
	return func(t *Tracer) {
		t.clock = clock
	}
}

// WithLogger sets the diagnostic logger. A *logrus.Logger satisfies it.
func WithLogger(logger logging.Logger) Option {
	return func(t *Tracer) {
		t.logger = logger
	}
}

// WithConstantTags sets tags applied to every span at creation.
func WithConstantTags(tags map[Tag]string) Option {
	return func(t *Tracer) {
		t.constantTags = maps.Clone(tags)
	}
}

// WithReporters registers reporters in the given order.
func WithReporters(reporters ...Reporter) Option {
	return func(t *Tracer) {
		t.reporters = append(t.reporters, reporters...)
	}
}

// WithFormat registers an additional carrier format, replacing any format
// with the same name.
func WithFormat(f Format) Option {
	return func(t *Tracer) {
		t.formats[f.Name()] = f
	}
}

// WithIDGenerator replaces the id source for trace and span ids.
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracer) {
		t.newIDFunc = gen
	}
}

// Tracer creates spans and fans their events out to reporters.
// Reporter registration is safe for concurrent use; each tracer owns its own
// reporters, constant tags and formats.
//
//nolint:govet // Field order optimized for readability
type Tracer struct {
	reporters    []Reporter
	constantTags map[Tag]string
	formats      map[string]Format
	clock        clockz.Clock
	logger       logging.Logger
	newIDFunc    func() string
	idPool       *IDPool
	idPoolOnce   sync.Once
	mu           sync.RWMutex
}

// New creates a tracer with the text map, Jaeger and Zipkin B3 formats registered.
func New(opts ...Option) *Tracer {
	t := &Tracer{
		clock:   clockz.RealClock,
		logger:  logging.NewDefault(),
		formats: make(map[string]Format),
	}
	for _, f := range defaultFormats() {
		t.formats[f.Name()] = f
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracer) now() time.Time {
	if t == nil || t.clock == nil {
		return time.Now()
	}
	return t.clock.Now()
}

func (t *Tracer) newID() string {
	if t.newIDFunc != nil {
		if id := t.newIDFunc(); id != "" {
			return id
		}
	}
	t.idPoolOnce.Do(func() {
		t.idPool = NewIDPool(runtime.NumCPU()*64, NewID)
	})
	return t.idPool.Get()
}

// StartSpan creates and starts a span.
//
// The trace id is inherited from the first reference regardless of its type;
// without references a new trace starts. The span id is always new.
func (t *Tracer) StartSpan(operationName Key, opts ...SpanOption) *Span {
	var o SpanOptions
	for _, opt := range opts {
		opt(&o)
	}
	return t.StartSpanWithOptions(operationName, o)
}

// StartSpanWithOptions is StartSpan with explicit options.
func (t *Tracer) StartSpanWithOptions(operationName Key, o SpanOptions) *Span {
	var first *SpanContext
	if len(o.References) > 0 {
		first = o.References[0].Context
	}

	traceID := ""
	if first != nil {
		traceID = first.TraceID()
	}
	if traceID == "" {
		traceID = t.newID()
	}

	sc := &SpanContext{
		traceID: traceID,
		spanID:  t.newID(),
		baggage: make(map[string]string),
	}
	if first != nil && !o.IgnoreBaggage {
		sc.AddBaggageItems(first.baggage)
	}

	span := &Span{
		tracer:        t,
		context:       sc,
		operationName: operationName,
	}

	t.mu.RLock()
	for k, v := range t.constantTags {
		span.SetTag(k, v)
	}
	t.mu.RUnlock()
	span.AddTags(o.Tags)

	for _, ref := range o.References {
		span.AddReference(ref)
	}

	span.Start(o.StartTime)
	t.dispatchCreate(span)
	return span
}

// AddReporter appends a reporter. Registering the same reporter twice
// delivers every event to it twice.
func (t *Tracer) AddReporter(r Reporter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reporters = append(t.reporters, r)
}

// RemoveReporter removes the first registration of r and closes it.
// It returns false when r is not registered. Reporters of uncomparable
// value types cannot be matched; register them by pointer to remove them.
func (t *Tracer) RemoveReporter(r Reporter) bool {
	if r == nil || !reflect.TypeOf(r).Comparable() {
		return false
	}
	t.mu.Lock()
	idx := -1
	for i, existing := range t.reporters {
		if existing == r {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return false
	}
	// Preserve order.
	t.reporters = append(t.reporters[:idx:idx], t.reporters[idx+1:]...)
	t.mu.Unlock()

	if err := r.Close(); err != nil {
		t.logger.Warningf("closing reporter: %v", err)
	}
	return true
}

// Reporters returns the registered reporters in notification order.
func (t *Tracer) Reporters() []Reporter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Reporter(nil), t.reporters...)
}

// ConstantTags returns a copy of the tags applied to every span.
func (t *Tracer) ConstantTags() map[Tag]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.constantTags)
}

// SetConstantTag sets a tag applied to every span created from now on.
func (t *Tracer) SetConstantTag(key Tag, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.constantTags == nil {
		t.constantTags = make(map[Tag]string)
	}
	t.constantTags[key] = value
}

// Close removes and closes every reporter and stops id generation.
func (t *Tracer) Close() error {
	t.mu.Lock()
	reporters := t.reporters
	t.reporters = nil
	t.mu.Unlock()

	var result *multierror.Error
	for _, r := range reporters {
		if err := r.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if t.idPool != nil {
		t.idPool.Close()
	}
	return result.ErrorOrNil()
}

func (t *Tracer) dispatchCreate(span *Span) {
	if t == nil {
		return
	}
	for _, r := range t.Reporters() {
		if r.Accepts().SpanCreate {
			t.handleResult("span create", span, r.ReceiveSpanCreate(span))
		}
	}
}

func (t *Tracer) dispatchLog(span *Span, log Log) {
	if t == nil {
		return
	}
	for _, r := range t.Reporters() {
		if r.Accepts().SpanLog {
			t.handleResult("span log", span, r.ReceiveSpanLog(span, log))
		}
	}
}

func (t *Tracer) dispatchFinish(span *Span) {
	if t == nil {
		return
	}
	for _, r := range t.Reporters() {
		if r.Accepts().SpanFinish {
			t.handleResult("span finish", span, r.ReceiveSpanFinish(span))
		}
	}
}

func (t *Tracer) handleResult(event string, span *Span, err error) {
	if err == nil || errors.Is(err, ErrRejected) {
		return
	}
	t.logger.WithField("trace_id", span.context.TraceID()).
		WithField("span_id", span.context.SpanID()).
		Warningf("reporter failed on %s: %v", event, err)
}

// Format returns the registered format with the given name.
func (t *Tracer) Format(name string) (Format, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.formats[name]
	return f, ok
}

// RegisterFormat adds or replaces a carrier format.
func (t *Tracer) RegisterFormat(f Format) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.formats[f.Name()] = f
}

// Inject writes sc into carrier using the named format. Failures are logged,
// never returned: tracing must not break the caller.
func (t *Tracer) Inject(sc *SpanContext, format string, carrier any) {
	f, ok := t.Format(format)
	if !ok {
		t.logger.WithField("format", format).Errorf("could not inject context into carrier: %v", ErrUnknownFormat)
		return
	}
	if sc == nil {
		t.logger.WithField("format", format).Errorf("could not inject context into carrier: nil span context")
		return
	}
	if err := f.Inject(sc, carrier); err != nil {
		t.logger.WithField("format", format).Errorf("could not inject context into carrier: %v", err)
	}
}

// Extract reads a span context from carrier using the named format. It
// returns nil when the format is unknown, the carrier is malformed or the
// identity is incomplete. Starting a new trace is left to the caller.
func (t *Tracer) Extract(format string, carrier any) *SpanContext {
	f, ok := t.Format(format)
	if !ok {
		t.logger.WithField("format", format).Errorf("could not extract context from carrier: %v", ErrUnknownFormat)
		return nil
	}
	sc, err := f.Extract(carrier)
	if err != nil {
		if !errors.Is(err, ErrContextNotFound) {
			t.logger.WithField("format", format).Errorf("could not extract context from carrier: %v", err)
		}
		return nil
	}
	return sc
}
