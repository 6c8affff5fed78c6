package spanz

import (
	"errors"
	"fmt"
)

// ErrNoParent is returned by relations that require a parent span.
var ErrNoParent = errors.New("spanz: traced function requires a parent span")

// Relation decides how a wrapped call's span relates to the caller's span.
// parent is nil when the caller has none.
type Relation func(parent *Span) ([]SpanOption, error)

// NewTraceRelation ignores the parent and starts a new trace.
func NewTraceRelation(*Span) ([]SpanOption, error) {
	return nil, nil
}

// ChildOfRelation makes the new span a child of parent.
func ChildOfRelation(parent *Span) ([]SpanOption, error) {
	if parent == nil {
		return nil, ErrNoParent
	}
	return []SpanOption{ChildOf(parent.Context())}, nil
}

// FollowsFromRelation makes the new span follow from parent.
func FollowsFromRelation(parent *Span) ([]SpanOption, error) {
	if parent == nil {
		return nil, ErrNoParent
	}
	return []SpanOption{FollowsFrom(parent.Context())}, nil
}

// ExtractRelation continues a trace found in carrier, falling back to a new
// trace when the carrier holds no usable context.
func ExtractRelation(tracer *Tracer, format string, carrier any) Relation {
	return func(*Span) ([]SpanOption, error) {
		if sc := tracer.Extract(format, carrier); sc != nil {
			return []SpanOption{ChildOf(sc)}, nil
		}
		return nil, nil
	}
}

// WrapOptions configure Wrap and WrapAsync.
type WrapOptions struct {
	OperationName string
	// Component, when set, becomes the span's component tag unless the
	// relation's options set one.
	Component string
	Relation  Relation
	// Tracer defaults to the parent's tracer, then GlobalTracer.
	Tracer *Tracer
	// ManualFinish leaves finishing the span to fn.
	ManualFinish bool
}

// Result carries the outcome of an asynchronous wrapped call.
type Result[T any] struct {
	Value T
	Err   error
}

func (o WrapOptions) start(parent *Span) (*Span, error) {
	relation := o.Relation
	if relation == nil {
		relation = ChildOfRelation
	}
	opts, err := relation(parent)
	if err != nil {
		return nil, fmt.Errorf("relation for %q: %w", o.OperationName, err)
	}

	tracer := o.Tracer
	if tracer == nil && parent != nil {
		tracer = parent.Tracer()
	}
	if tracer == nil {
		tracer = GlobalTracer()
	}

	if o.Component != "" {
		opts = append([]SpanOption{WithTag(TagComponent, o.Component)}, opts...)
	}
	return tracer.StartSpan(o.OperationName, opts...), nil
}

func markFailed(span *Span, err error) {
	span.Logger().Error(err.Error(), err)
	span.SetTag(TagError, true)
}

// Wrap runs fn inside a new span related to parent. When fn returns an error
// or panics, the span is tagged error=true and gets an error log. Unless
// ManualFinish is set the span is finished before Wrap returns; a panic is
// re-raised after finishing.
func Wrap[T any](parent *Span, opts WrapOptions, fn func(span *Span) (T, error)) (result T, err error) {
	span, err := opts.start(parent)
	if err != nil {
		return result, err
	}

	defer func() {
		if r := recover(); r != nil {
			markFailed(span, fmt.Errorf("panic: %v", r))
			span.Finish()
			panic(r)
		}
	}()

	result, err = fn(span)
	if opts.ManualFinish {
		return result, err
	}
	if err != nil {
		markFailed(span, err)
	}
	span.Finish()
	return result, err
}

// WrapAsync is Wrap on a new goroutine. The span is started before WrapAsync
// returns; the channel yields exactly one Result. A panic in fn is reported
// as an error instead of crashing the process.
func WrapAsync[T any](parent *Span, opts WrapOptions, fn func(span *Span) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)

	span, err := opts.start(parent)
	if err != nil {
		out <- Result[T]{Err: err}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		var res Result[T]
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("panic: %v", r)
				markFailed(span, res.Err)
				span.Finish()
			}
			out <- res
		}()

		res.Value, res.Err = fn(span)
		if opts.ManualFinish {
			return
		}
		if res.Err != nil {
			markFailed(span, res.Err)
		}
		span.Finish()
	}()
	return out
}
