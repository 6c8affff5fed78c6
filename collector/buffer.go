package collector

import (
	"sync"
	"sync/atomic"
)

type pending[T any] struct {
	item T
	seq  uint64
}

// Batch is a snapshot of buffered items. Remove it from the buffer once it
// has been delivered.
type Batch[T any] struct {
	Items []T
	seqs  []uint64
}

// Len returns the number of items in the batch.
func (b Batch[T]) Len() int {
	return len(b.Items)
}

// Buffer holds items awaiting delivery. Safe for concurrent use.
//
//nolint:govet // Field alignment optimized for readability over memory efficiency
type Buffer[T any] struct {
	items   []pending[T]
	limit   int
	nextSeq uint64
	dropped atomic.Int64
	mu      sync.Mutex
}

// NewBuffer creates a buffer holding at most limit items. Zero or less means
// unbounded.
func NewBuffer[T any](limit int) *Buffer[T] {
	return &Buffer[T]{
		items: make([]pending[T], 0, 8),
		limit: limit,
	}
}

// Add appends item. When the buffer is full the item is dropped, the drop
// counter is incremented and Add returns false.
func (b *Buffer[T]) Add(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit > 0 && len(b.items) >= b.limit {
		b.dropped.Add(1)
		return false
	}
	b.nextSeq++
	b.items = append(b.items, pending[T]{item: item, seq: b.nextSeq})
	return true
}

// Snapshot returns the buffered items without removing them.
func (b *Buffer[T]) Snapshot() Batch[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := Batch[T]{
		Items: make([]T, len(b.items)),
		seqs:  make([]uint64, len(b.items)),
	}
	for i, p := range b.items {
		batch.Items[i] = p.item
		batch.seqs[i] = p.seq
	}
	return batch
}

// Remove deletes exactly the items of batch that are still buffered. Items
// added after the snapshot are kept.
func (b *Buffer[T]) Remove(batch Batch[T]) {
	if len(batch.seqs) == 0 {
		return
	}
	done := make(map[uint64]struct{}, len(batch.seqs))
	for _, seq := range batch.seqs {
		done[seq] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.items[:0]
	for _, p := range b.items {
		if _, ok := done[p.seq]; !ok {
			kept = append(kept, p)
		}
	}
	// Zero the tail so removed items can be collected.
	var zero pending[T]
	for i := len(kept); i < len(b.items); i++ {
		b.items[i] = zero
	}

	// Shrink only when very oversized to avoid allocation churn.
	if cap(kept) > 256 && len(kept) < cap(kept)/8 {
		newCap := cap(kept) / 4
		shrunk := make([]pending[T], len(kept), newCap)
		copy(shrunk, kept)
		kept = shrunk
	}
	b.items = kept
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Dropped returns how many items were rejected because the buffer was full.
func (b *Buffer[T]) Dropped() int64 {
	return b.dropped.Load()
}

// Reset clears the buffer and the drop counter.
func (b *Buffer[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = b.items[:0]
	b.dropped.Store(0)
}
