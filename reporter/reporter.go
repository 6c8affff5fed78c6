// Package reporter provides span sinks and the filtering proxies that sit
// in front of them.
//
// Proxies forward to a target reporter only when their predicate holds and
// answer spanz.ErrRejected otherwise. A proxy advertises the target's
// accept flags as they were at construction time. Closing a proxy closes
// its target and detaches it; later events fail with ErrClosed.
package reporter

import (
	"errors"
	"sync"

	"github.com/zoobzio/spanz"
)

// ErrClosed is returned by proxies that have been closed.
var ErrClosed = errors.New("reporter: closed")

// Component tag fallback used by sinks that group output by component.
const noComponent = "NO-COMPONENT"

type proxy struct {
	target  spanz.Reporter
	accepts spanz.Accepts
	mu      sync.RWMutex
}

func (p *proxy) init(target spanz.Reporter) {
	p.target = target
	p.accepts = target.Accepts()
}

func (p *proxy) Accepts() spanz.Accepts {
	return p.accepts
}

func (p *proxy) current() (spanz.Reporter, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.target == nil {
		return nil, ErrClosed
	}
	return p.target, nil
}

// Target returns the wrapped reporter, or nil once closed.
func (p *proxy) Target() spanz.Reporter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target
}

func (p *proxy) Close() error {
	p.mu.Lock()
	target := p.target
	p.target = nil
	p.mu.Unlock()

	if target == nil {
		return nil
	}
	return target.Close()
}

func componentOf(span *spanz.Span) (string, bool) {
	v, ok := span.Tag(spanz.TagComponent)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
