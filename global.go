package spanz

import "sync/atomic"

var globalTracer atomic.Pointer[Tracer]

// GlobalTracer returns the process-wide tracer. Until SetGlobalTracer is
// called it is a tracer with no reporters.
func GlobalTracer() *Tracer {
	if t := globalTracer.Load(); t != nil {
		return t
	}
	globalTracer.CompareAndSwap(nil, New())
	return globalTracer.Load()
}

// SetGlobalTracer replaces the process-wide tracer. A nil tracer resets it.
func SetGlobalTracer(t *Tracer) {
	globalTracer.Store(t)
}
