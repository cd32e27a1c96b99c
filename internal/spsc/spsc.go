// Package spsc implements the single-producer/single-consumer bounded
// ring of spec.md §4.3: a zero-copy ring of fixed capacity C (a power of
// two), with a reserve/commit API on both ends so the producer writes
// directly into the slot instead of copying a value in and out.
//
// Grounded on the cache-isolation discipline of the teacher's
// internal/disruptor/ring_buffer.go (padded cursors, power-of-two index
// mask) but built fresh: the teacher's ring is a shared-cursor MPMC
// design (see internal/mpmc, which keeps that lineage), while spec.md
// §4.3 wants a distinct SPSC ring with independently cached producer/
// consumer views of the other side's index, to avoid an atomic load on
// every single operation.
//
// Open Question (spec.md §9) resolved: this ring uses C−1 usable slots,
// matching "the standard SPSC algorithm" the spec text calls out as its
// own preference over the source's `next_write == read_cache` variant.
package spsc

import (
	"sync/atomic"

	"github.com/rishav/hft-trade-core/internal/cachepad"
)

// Ring is a bounded SPSC FIFO of T. One producer goroutine and one
// consumer goroutine only — both identities are fixed for the life of
// the ring, per spec.md §4.3.
type Ring[T any] struct {
	mask uint64
	buf  []T

	// writeIdx is published by the producer (release) and read by the
	// consumer (acquire). readIdx is the mirror in the other direction.
	// Each lives on its own cache line, and so does each side's locally
	// cached view of the other index, per spec.md §4.3's false-sharing
	// requirement.
	writeIdx cachepad.Cell[uint64]
	readIdx  cachepad.Cell[uint64]

	cachedReadIdx  cachepad.Cell[uint64] // producer's cached view of readIdx
	cachedWriteIdx cachepad.Cell[uint64] // consumer's cached view of writeIdx
}

// New constructs a ring of the given capacity, which must be a power of
// two. Capacity−1 slots are usable at any one time.
func New[T any](capacity uint64) *Ring[T] {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("spsc: capacity must be a power of two")
	}
	return &Ring[T]{
		mask: capacity - 1,
		buf:  make([]T, capacity),
	}
}

// ReserveWrite returns a pointer to the next writable slot, or nil if the
// ring is full. The caller fills the slot in place, then must call
// CommitWrite to publish it. Producer-side only.
func (r *Ring[T]) ReserveWrite() *T {
	w := r.writeIdx.Value
	next := w + 1

	cached := r.cachedReadIdx.Value
	if next-cached > r.mask {
		// Cache miss: refresh from the consumer's published index.
		cached = atomic.LoadUint64(&r.readIdx.Value)
		r.cachedReadIdx.Value = cached
		if next-cached > r.mask {
			return nil // full
		}
	}
	return &r.buf[w&r.mask]
}

// CommitWrite publishes the slot most recently returned by ReserveWrite,
// making it visible to the consumer. Producer-side only.
func (r *Ring[T]) CommitWrite() {
	atomic.AddUint64(&r.writeIdx.Value, 1)
}

// PeekRead returns a pointer to the next readable slot, or nil if the
// ring is empty. The caller must not mutate *T through this pointer in a
// way that could race the producer's next write; it must call CommitRead
// once done reading. Consumer-side only.
func (r *Ring[T]) PeekRead() *T {
	rd := r.readIdx.Value

	cached := r.cachedWriteIdx.Value
	if rd == cached {
		cached = atomic.LoadUint64(&r.writeIdx.Value)
		r.cachedWriteIdx.Value = cached
		if rd == cached {
			return nil // empty
		}
	}
	return &r.buf[rd&r.mask]
}

// CommitRead releases the slot most recently returned by PeekRead,
// allowing the producer to reuse it. CommitRead on an empty ring (i.e.
// with no prior successful PeekRead since the last commit) is a no-op
// guarded by the caller checking PeekRead's return first. Consumer-side
// only.
func (r *Ring[T]) CommitRead() {
	atomic.AddUint64(&r.readIdx.Value, 1)
}

// Len returns the number of committed-but-unread entries. For
// observability only; not used on the hot path.
func (r *Ring[T]) Len() uint64 {
	w := atomic.LoadUint64(&r.writeIdx.Value)
	rd := atomic.LoadUint64(&r.readIdx.Value)
	return (w - rd) & r.mask
}

// Capacity returns the usable capacity (C−1 slots).
func (r *Ring[T]) Capacity() uint64 {
	return r.mask
}
