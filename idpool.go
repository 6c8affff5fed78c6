package spanz

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// IDPool keeps a buffer of pre-generated ids to amortize crypto/rand overhead.
type IDPool struct {
	factory func() string
	ids     chan string
	stopCh  chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewIDPool creates a pool holding up to capacity ids produced by factory.
func NewIDPool(capacity int, factory func() string) *IDPool {
	pool := &IDPool{
		ids:     make(chan string, capacity),
		factory: factory,
		stopCh:  make(chan struct{}),
	}
	go pool.refill()
	return pool
}

// Get returns a pooled id, or a freshly generated one when the pool is drained.
func (p *IDPool) Get() string {
	select {
	case id := <-p.ids:
		return id
	default:
		return p.factory()
	}
}

func (p *IDPool) refill() {
	for {
		select {
		case <-p.stopCh:
			return
		case p.ids <- p.factory():
		}
	}
}

// Close stops the background refill. Get keeps working afterwards.
func (p *IDPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		close(p.stopCh)
		p.closed = true
	}
}

var fallbackID atomic.Uint64

// NewID returns a random, non-zero 64-bit id as 16 lowercase hex digits.
// 64-bit hex ids are what Jaeger and Zipkin collectors expect.
func NewID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil || binary.BigEndian.Uint64(b[:]) == 0 {
		// crypto/rand failed or produced zero; zero ids are invalid downstream.
		binary.BigEndian.PutUint64(b[:], fallbackID.Add(0x9e3779b97f4a7c15))
	}
	return hex.EncodeToString(b[:])
}
