package spanz

import (
	"errors"
	"testing"
)

func TestWrapNewTraceFinishes(t *testing.T) {
	tracer, _ := newTestTracer()
	rec := newRecorder()
	tracer.AddReporter(rec)

	var inner *Span
	got, err := Wrap(nil, WrapOptions{
		OperationName: "multiply",
		Relation:      NewTraceRelation,
		Tracer:        tracer,
		Component:     "Calculator",
	}, func(span *Span) (int, error) {
		inner = span
		return 24, nil
	})
	if err != nil || got != 24 {
		t.Fatalf("Expected 24, nil; got %d, %v", got, err)
	}
	if !inner.Finished() {
		t.Error("Expected span to be finished")
	}
	if inner.OperationName() != "multiply" {
		t.Errorf("Expected operation name multiply, got %s", inner.OperationName())
	}
	if v, _ := inner.Tag(TagComponent); v != "Calculator" {
		t.Errorf("Expected component tag, got %v", v)
	}
	if len(rec.kinds()) != 2 {
		t.Errorf("Expected create and finish events, got %v", rec.kinds())
	}
}

func TestWrapChildOfRequiresParent(t *testing.T) {
	called := false
	_, err := Wrap(nil, WrapOptions{OperationName: "sum"}, func(*Span) (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, ErrNoParent) {
		t.Errorf("Expected ErrNoParent, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run when the relation fails")
	}
}

func TestWrapRelations(t *testing.T) {
	tracer, _ := newTestTracer()
	parent := tracer.StartSpan("parent")

	cases := []struct {
		relation Relation
		want     ReferenceType
	}{
		{ChildOfRelation, ChildOfRef},
		{FollowsFromRelation, FollowsFromRef},
	}
	for _, tc := range cases {
		_, _ = Wrap(parent, WrapOptions{OperationName: "op", Relation: tc.relation}, func(span *Span) (struct{}, error) {
			refs := span.References()
			if len(refs) != 1 || refs[0].Type != tc.want {
				t.Errorf("Expected one %v reference, got %+v", tc.want, refs)
			}
			if span.Tracer() != tracer {
				t.Error("Expected parent's tracer")
			}
			return struct{}{}, nil
		})
	}
}

func TestWrapErrorMarksSpan(t *testing.T) {
	tracer, _ := newTestTracer()
	parent := tracer.StartSpan("parent")
	boom := errors.New("boom")

	var inner *Span
	_, err := Wrap(parent, WrapOptions{OperationName: "op"}, func(span *Span) (string, error) {
		inner = span
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if v, _ := inner.Tag(TagError); v != true {
		t.Errorf("Expected error tag true, got %v", v)
	}
	logs := inner.Snapshot().Logs
	if len(logs) != 1 || logs[0].Fields[LogFieldEvent] != "error" || logs[0].Fields[LogFieldMessage] != "boom" {
		t.Errorf("Expected one error log, got %+v", logs)
	}
	if !inner.Finished() {
		t.Error("Expected span to be finished")
	}
}

func TestWrapPanicFinishesAndRepanics(t *testing.T) {
	tracer, _ := newTestTracer()
	var inner *Span

	defer func() {
		if r := recover(); r != "kaboom" {
			t.Errorf("Expected panic to propagate, got %v", r)
		}
		if inner == nil || !inner.Finished() {
			t.Error("Expected span to be finished before re-panic")
		}
		if v, _ := inner.Tag(TagError); v != true {
			t.Error("Expected error tag on panic")
		}
	}()

	_, _ = Wrap(nil, WrapOptions{OperationName: "op", Relation: NewTraceRelation, Tracer: tracer}, func(span *Span) (int, error) {
		inner = span
		panic("kaboom")
	})
}

func TestWrapManualFinish(t *testing.T) {
	tracer, _ := newTestTracer()
	var inner *Span
	_, _ = Wrap(nil, WrapOptions{OperationName: "op", Relation: NewTraceRelation, Tracer: tracer, ManualFinish: true},
		func(span *Span) (int, error) {
			inner = span
			return 0, errors.New("ignored")
		})
	if inner.Finished() {
		t.Error("Expected span to stay open with ManualFinish")
	}
	if _, ok := inner.Tag(TagError); ok {
		t.Error("Expected no error tag with ManualFinish")
	}
}

func TestWrapExtractRelation(t *testing.T) {
	tracer, _ := newTestTracer()
	headers := map[string]string{JaegerHeader: "remote-trace:remote-span:0:1"}

	_, _ = Wrap(nil, WrapOptions{OperationName: "handler", Relation: ExtractRelation(tracer, JaegerFormatName, headers), Tracer: tracer},
		func(span *Span) (int, error) {
			if span.Context().TraceID() != "remote-trace" {
				t.Errorf("Expected remote trace, got %s", span.Context().TraceID())
			}
			return 0, nil
		})

	_, _ = Wrap(nil, WrapOptions{OperationName: "handler", Relation: ExtractRelation(tracer, JaegerFormatName, map[string]string{}), Tracer: tracer},
		func(span *Span) (int, error) {
			if len(span.References()) != 0 {
				t.Error("Expected a new trace when the carrier is empty")
			}
			return 0, nil
		})
}

func TestWrapAsync(t *testing.T) {
	tracer, _ := newTestTracer()
	parent := tracer.StartSpan("parent")

	res := <-WrapAsync(parent, WrapOptions{OperationName: "async"}, func(*Span) (string, error) {
		return "done", nil
	})
	if res.Err != nil || res.Value != "done" {
		t.Errorf("Expected done, got %+v", res)
	}

	res = <-WrapAsync(parent, WrapOptions{OperationName: "async"}, func(*Span) (string, error) {
		panic("async boom")
	})
	if res.Err == nil {
		t.Error("Expected panic to surface as an error")
	}

	res = <-WrapAsync(nil, WrapOptions{OperationName: "async"}, func(*Span) (string, error) {
		return "unreachable", nil
	})
	if !errors.Is(res.Err, ErrNoParent) {
		t.Errorf("Expected ErrNoParent, got %v", res.Err)
	}
}
