package spanz

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/zoobzio/spanz/internal/logging"
)

func TestNewTracerDefaults(t *testing.T) {
	tracer := New()
	defer tracer.Close()

	for _, name := range []string{TextMapFormatName, JaegerFormatName, ZipkinB3FormatName} {
		if _, ok := tracer.Format(name); !ok {
			t.Errorf("Expected format %s to be registered", name)
		}
	}
	if len(tracer.Reporters()) != 0 {
		t.Error("Expected no reporters on a new tracer")
	}
}

func TestStartSpanRoot(t *testing.T) {
	tracer, _ := newTestTracer()
	span := tracer.StartSpan("root")

	if span.Context().TraceID() != "1" || span.Context().SpanID() != "2" {
		t.Errorf("Expected ids 1/2, got %s/%s", span.Context().TraceID(), span.Context().SpanID())
	}
	if len(span.References()) != 0 {
		t.Error("Expected root span without references")
	}
	if span.Tracer() != tracer {
		t.Error("Expected span to point back at its tracer")
	}
}

func TestStartSpanInheritsTraceFromFirstReference(t *testing.T) {
	tracer, _ := newTestTracer()
	first, _ := NewSpanContext("trace-a", "span-a")
	first.AddBaggageItems(map[string]string{"user": "1"})
	second, _ := NewSpanContext("trace-b", "span-b")
	second.AddBaggageItems(map[string]string{"tenant": "x"})

	span := tracer.StartSpan("op", FollowsFrom(first), ChildOf(second))

	if span.Context().TraceID() != "trace-a" {
		t.Errorf("Expected trace-a from first reference, got %s", span.Context().TraceID())
	}
	if span.Context().SpanID() == "span-a" || span.Context().SpanID() == "span-b" {
		t.Error("Expected a fresh span id")
	}
	want := map[string]string{"user": "1"}
	if diff := cmp.Diff(want, span.Context().BaggageItems()); diff != "" {
		t.Errorf("Baggage mismatch (-want +got):\n%s", diff)
	}

	refs := span.References()
	if len(refs) != 2 || refs[0].Type != FollowsFromRef || refs[1].Type != ChildOfRef {
		t.Errorf("Expected references in given order, got %+v", refs)
	}
}

func TestStartSpanWithoutBaggage(t *testing.T) {
	tracer, _ := newTestTracer()
	parent, _ := NewSpanContext("t", "s")
	parent.AddBaggageItems(map[string]string{"k": "v"})

	span := tracer.StartSpan("op", ChildOf(parent), WithoutBaggage())
	if len(span.Context().BaggageItems()) != 0 {
		t.Error("Expected no inherited baggage")
	}
	if span.Context().TraceID() != "t" {
		t.Error("Expected trace id still inherited")
	}
}

func TestChildBaggageDoesNotLeakToParent(t *testing.T) {
	tracer, _ := newTestTracer()
	parent := tracer.StartSpan("parent")
	child := tracer.StartSpan("child", ChildOf(parent.Context()))
	child.Context().AddBaggageItems(map[string]string{"child": "only"})

	if _, ok := parent.Context().BaggageItem("child"); ok {
		t.Error("Expected child baggage to stay on the child")
	}
}

func TestNilReferenceIgnored(t *testing.T) {
	tracer, _ := newTestTracer()
	span := tracer.StartSpan("op", ChildOf(nil))
	if len(span.References()) != 0 {
		t.Error("Expected nil reference to be ignored")
	}
}

func TestConstantTagsApplied(t *testing.T) {
	tracer, _ := newTestTracer(WithConstantTags(map[Tag]string{"service": "api", "env": "test"}))
	tracer.SetConstantTag("version", "1")

	span := tracer.StartSpan("op", WithTag("env", "override"))
	want := map[Tag]any{"service": "api", "env": "override", "version": "1"}
	if diff := cmp.Diff(want, span.Snapshot().Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
}

func TestReporterNotificationOrder(t *testing.T) {
	tracer, _ := newTestTracer()

	var mu sync.Mutex
	var order []string
	mk := func(name string) *ReporterFunc {
		return &ReporterFunc{
			Flags: Accepts{SpanCreate: true, SpanLog: true, SpanFinish: true},
			OnCreate: func(*Span) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name+":create")
				return nil
			},
			OnLog: func(*Span, Log) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name+":log")
				return nil
			},
			OnFinish: func(*Span) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name+":finish")
				return nil
			},
		}
	}
	tracer.AddReporter(mk("a"))
	tracer.AddReporter(mk("b"))

	span := tracer.StartSpan("op")
	span.Log(map[string]any{"k": 1})
	span.Finish()

	want := []string{"a:create", "b:create", "a:log", "b:log", "a:finish", "b:finish"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
}

func TestReporterAcceptsGatesDispatch(t *testing.T) {
	tracer, _ := newTestTracer()
	rec := newRecorder()
	rec.accepts = Accepts{SpanFinish: true}
	tracer.AddReporter(rec)

	span := tracer.StartSpan("op")
	span.Log(map[string]any{"k": 1})
	span.Finish()

	if diff := cmp.Diff([]string{"finish"}, rec.kinds()); diff != "" {
		t.Errorf("Event mismatch (-want +got):\n%s", diff)
	}
}

func TestDuplicateReporterReceivesTwice(t *testing.T) {
	tracer, _ := newTestTracer()
	rec := newRecorder()
	tracer.AddReporter(rec)
	tracer.AddReporter(rec)

	tracer.StartSpan("op")
	if got := len(rec.kinds()); got != 2 {
		t.Errorf("Expected 2 create events, got %d", got)
	}
}

func TestRemoveReporter(t *testing.T) {
	tracer, _ := newTestTracer()
	a, b := newRecorder(), newRecorder()
	tracer.AddReporter(a)
	tracer.AddReporter(b)

	if !tracer.RemoveReporter(a) {
		t.Fatal("Expected reporter to be removed")
	}
	if a.closed != 1 {
		t.Errorf("Expected removed reporter to be closed once, got %d", a.closed)
	}
	if tracer.RemoveReporter(a) {
		t.Error("Expected second removal to report false")
	}

	tracer.StartSpan("op")
	if len(a.kinds()) != 0 {
		t.Error("Expected removed reporter to receive nothing")
	}
	if len(b.kinds()) != 1 {
		t.Error("Expected remaining reporter to receive the event")
	}
}

type labeledReporter struct {
	NopReporter
	labels map[string]string
}

func TestRemoveUncomparableReporter(t *testing.T) {
	tracer, _ := newTestTracer()
	tracer.AddReporter(labeledReporter{labels: map[string]string{"env": "test"}})

	removed := tracer.RemoveReporter(labeledReporter{labels: map[string]string{"env": "test"}})
	if removed {
		t.Error("Expected uncomparable reporter removal to report false")
	}
	if len(tracer.Reporters()) != 1 {
		t.Errorf("Expected reporter to stay registered, got %d", len(tracer.Reporters()))
	}
	if tracer.RemoveReporter(nil) {
		t.Error("Expected nil removal to report false")
	}
}

func TestReporterErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	tracer, _ := newTestTracer(WithLogger(logging.New(&buf, logrus.DebugLevel)))

	failing := newRecorder()
	failing.err = errors.New("sink down")
	rejecting := newRecorder()
	rejecting.err = ErrRejected
	after := newRecorder()
	tracer.AddReporter(failing)
	tracer.AddReporter(rejecting)
	tracer.AddReporter(after)

	tracer.StartSpan("op").Finish()

	if len(after.kinds()) != 2 {
		t.Error("Expected later reporters to keep receiving events after a failure")
	}
	out := buf.String()
	if !strings.Contains(out, "sink down") {
		t.Errorf("Expected reporter error to be logged, got %q", out)
	}
	if strings.Contains(out, ErrRejected.Error()) {
		t.Errorf("Expected rejections to stay silent, got %q", out)
	}
}

func TestTracerClose(t *testing.T) {
	tracer, _ := newTestTracer()
	ok := newRecorder()
	bad := &ReporterFunc{OnClose: func() error { return errors.New("close failed") }}
	tracer.AddReporter(ok)
	tracer.AddReporter(bad)

	err := tracer.Close()
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("Expected aggregated close error, got %v", err)
	}
	if ok.closed != 1 {
		t.Error("Expected every reporter to be closed")
	}
	if len(tracer.Reporters()) != 0 {
		t.Error("Expected no reporters after Close")
	}
}

func TestTracersAreIndependent(t *testing.T) {
	t1, _ := newTestTracer(WithConstantTags(map[Tag]string{"who": "one"}))
	t2, _ := newTestTracer()
	rec := newRecorder()
	t1.AddReporter(rec)

	span := t2.StartSpan("op")
	if len(rec.kinds()) != 0 {
		t.Error("Expected reporters to be scoped to their tracer")
	}
	if _, ok := span.Tag("who"); ok {
		t.Error("Expected constant tags to be scoped to their tracer")
	}
}

func TestDefaultIDs(t *testing.T) {
	tracer := New(WithLogger(logging.NewNop()))
	defer tracer.Close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		span := tracer.StartSpan("op")
		id := span.Context().SpanID()
		if len(id) != 16 {
			t.Fatalf("Expected 16 hex digits, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate span id %s", id)
		}
		seen[id] = true
	}
}

func TestConcurrentReporterRegistration(t *testing.T) {
	tracer, _ := newTestTracer()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r := newRecorder()
			tracer.AddReporter(r)
			tracer.RemoveReporter(r)
		}()
		go func() {
			defer wg.Done()
			tracer.StartSpan("op").Finish()
		}()
	}
	wg.Wait()

	if len(tracer.Reporters()) != 0 {
		t.Errorf("Expected all reporters removed, got %d", len(tracer.Reporters()))
	}
}

func TestGlobalTracer(t *testing.T) {
	defer SetGlobalTracer(nil)

	def := GlobalTracer()
	if def == nil {
		t.Fatal("Expected a default global tracer")
	}
	if GlobalTracer() != def {
		t.Error("Expected the default global tracer to be stable")
	}

	custom, _ := newTestTracer()
	SetGlobalTracer(custom)
	if GlobalTracer() != custom {
		t.Error("Expected SetGlobalTracer to replace the global tracer")
	}
}
