package spanz

import (
	"strconv"
	"sync"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/spanz/internal/logging"
)

var testEpoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// sequentialIDs returns an id generator yielding "1", "2", "3", ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return strconv.Itoa(n)
	}
}

func newTestTracer(opts ...Option) (*Tracer, *clockz.FakeClock) {
	clock := clockz.NewFakeClockAt(testEpoch)
	base := []Option{
		WithClock(clock),
		WithLogger(logging.NewNop()),
		WithIDGenerator(sequentialIDs()),
	}
	return New(append(base, opts...)...), clock
}

type event struct {
	kind string
	span *Span
	log  Log
}

// recorder captures every event it accepts.
type recorder struct {
	mu      sync.Mutex
	events  []event
	accepts Accepts
	err     error
	closed  int
}

func newRecorder() *recorder {
	return &recorder{accepts: Accepts{SpanCreate: true, SpanLog: true, SpanFinish: true}}
}

func (r *recorder) Accepts() Accepts { return r.accepts }

func (r *recorder) add(e event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) ReceiveSpanCreate(s *Span) error { return r.add(event{kind: "create", span: s}) }

func (r *recorder) ReceiveSpanLog(s *Span, l Log) error {
	return r.add(event{kind: "log", span: s, log: l})
}

func (r *recorder) ReceiveSpanFinish(s *Span) error { return r.add(event{kind: "finish", span: s}) }

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.kind)
	}
	return out
}
