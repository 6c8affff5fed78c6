// Package integration holds cross-package tests: real HTTP transports
// against fake collectors, propagation between tracers and concurrent use.
package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/zoobzio/spanz"
	"github.com/zoobzio/spanz/internal/logging"
	"github.com/zoobzio/spanz/transport"
)

// ReceivedRequest is one request seen by a FakeCollector. Gzip bodies are
// already decompressed.
type ReceivedRequest struct {
	Path        string
	ContentType string
	Encoding    string
	Body        []byte
}

// FakeCollector is an HTTP server standing in for Jaeger, Zipkin or a
// generic collector.
//
//nolint:govet // Field alignment optimized for test helper readability
type FakeCollector struct {
	*httptest.Server
	requests []ReceivedRequest
	statuses []int
	status   int
	mu       sync.Mutex
}

// NewFakeCollector starts a collector answering the given statuses in
// order, then 202 for every later request. It is closed with the test.
func NewFakeCollector(t *testing.T, statuses ...int) *FakeCollector {
	t.Helper()
	c := &FakeCollector{statuses: statuses, status: http.StatusAccepted}
	c.Server = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.Close)
	return c
}

func (c *FakeCollector) handle(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer zr.Close()
		reader = zr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	c.requests = append(c.requests, ReceivedRequest{
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Encoding:    r.Header.Get("Content-Encoding"),
		Body:        body,
	})
	status := c.status
	if len(c.statuses) > 0 {
		status = c.statuses[0]
		c.statuses = c.statuses[1:]
	}
	c.mu.Unlock()

	w.WriteHeader(status)
}

// SetStatus fixes the status of every later request.
func (c *FakeCollector) SetStatus(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = nil
	c.status = code
}

// Requests returns a copy of every request received so far.
func (c *FakeCollector) Requests() []ReceivedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ReceivedRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// NewTracer creates a tracer with a silent logger.
func NewTracer(reporters ...spanz.Reporter) *spanz.Tracer {
	return spanz.New(
		spanz.WithLogger(logging.NewNop()),
		spanz.WithReporters(reporters...),
	)
}

// NewClient creates an HTTP transport with fast retries.
func NewClient(retries int, opts ...transport.Option) *transport.Client {
	base := []transport.Option{
		transport.WithTimeout(2 * time.Second),
		transport.WithRetry(retries, time.Millisecond, 5*time.Millisecond),
	}
	return transport.New(append(base, opts...)...)
}

// WaitFor polls cond until it holds or timeout passes.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
