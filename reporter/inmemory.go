package reporter

import (
	"sync"

	"github.com/zoobzio/spanz"
)

// InMemory keeps every created span. Mostly useful in tests.
type InMemory struct {
	spans []*spanz.Span
	mu    sync.Mutex
	spanz.NopReporter
}

// NewInMemory creates an empty in-memory reporter.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Accepts implements spanz.Reporter.
func (*InMemory) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanCreate: true}
}

// ReceiveSpanCreate implements spanz.Reporter.
func (r *InMemory) ReceiveSpanCreate(span *spanz.Span) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = append(r.spans, span)
	return nil
}

// Spans returns the recorded spans in creation order.
func (r *InMemory) Spans() []*spanz.Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*spanz.Span(nil), r.spans...)
}

// Snapshots returns a snapshot of every recorded span.
func (r *InMemory) Snapshots() []spanz.Snapshot {
	spans := r.Spans()
	out := make([]spanz.Snapshot, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.Snapshot())
	}
	return out
}

// Close drops the recorded spans.
func (r *InMemory) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spans = nil
	return nil
}
