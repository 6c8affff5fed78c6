package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/internal/logging"
	"github.com/zoobzio/spanz/transport"
)

var testEpoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func hexIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%016x", 0xa0+n)
	}
}

func newTracer(reporters ...spanz.Reporter) (*spanz.Tracer, *clockz.FakeClock) {
	clock := clockz.NewFakeClockAt(testEpoch)
	return spanz.New(
		spanz.WithClock(clock),
		spanz.WithLogger(logging.NewNop()),
		spanz.WithIDGenerator(hexIDs()),
		spanz.WithReporters(reporters...),
	), clock
}

type sent struct {
	url string
	req transport.Request
}

// fakeSender records requests and answers with resp/err. during runs inside
// the send, before it returns.
type fakeSender struct {
	mu       sync.Mutex
	requests []sent
	resp     transport.Response
	err      error
	during   func()
}

func newFakeSender() *fakeSender {
	return &fakeSender{resp: transport.Response{StatusCode: 202, OK: true}}
}

func (f *fakeSender) Send(_ context.Context, url string, req transport.Request) (transport.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, sent{url: url, req: req})
	during, resp, err := f.during, f.resp, f.err
	f.mu.Unlock()
	if during != nil {
		during()
	}
	return resp, err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeSender) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeSender) fail(resp transport.Response, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resp, f.err = resp, err
}
