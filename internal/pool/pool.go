// Package pool implements the fixed-capacity object allocator of
// spec.md §4.2: pre-allocated slots, O(1) allocate/deallocate, no
// allocation from the OS after construction.
//
// Grounded on the teacher's pre-allocated-slice discipline in
// internal/disruptor/ring_buffer.go (`slots: make([]RingBufferSlot,
// config.BufferSize)`), generalized into a standalone allocator with an
// intrusive LIFO free stack instead of the ring's sequence-number scheme.
//
// Design Notes §9 flags the source's `reinterpret_cast<void**>` free-list
// threading through raw payload bytes as a pattern that must not survive
// translation; here the free list is a plain []int32 stack addressed by
// slot index, never aliased with the payload.
package pool

import (
	"sync/atomic"

	"github.com/rishav/hft-trade-core/internal/cachepad"
)

// Handle is an index into a Pool's arena, or NoHandle.
type Handle int32

// NoHandle is returned by Allocate when the pool is exhausted.
const NoHandle Handle = -1

// spinlock is the test-and-set lock with bounded exponential back-off
// spec.md §4.2 permits for the pool's free-stack critical section: "a
// test-and-set spinlock with bounded exponential back-off guarded only by
// a CPU-pause-equivalent is acceptable; the critical section holds only
// the free-head store and a counter update, and must not include
// zeroing."
type spinlock struct {
	state atomic.Bool
}

func (s *spinlock) lock() {
	backoff := 1
	for !s.state.CompareAndSwap(false, true) {
		for i := 0; i < backoff; i++ {
			// CPU-pause-equivalent: a relaxed load that the compiler
			// cannot hoist out of the loop.
			_ = s.state.Load()
		}
		if backoff < 1024 {
			backoff *= 2
		}
	}
}

func (s *spinlock) unlock() {
	s.state.Store(false)
}

// Pool is a fixed-capacity, lock-free-ish allocator for a single record
// type T. Zero value is not usable; construct with New.
type Pool[T any] struct {
	arena []T
	free  []int32 // intrusive LIFO stack of free slot indices
	top   int32   // index of the next free slot in `free`, -1 if empty
	lock  spinlock

	inUse cachepad.Cell[int64]
}

// New pre-allocates capacity slots.
func New[T any](capacity int) *Pool[T] {
	p := &Pool[T]{
		arena: make([]T, capacity),
		free:  make([]int32, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free[i] = int32(i)
	}
	p.top = int32(capacity) - 1
	return p
}

// Allocate returns a handle to a free slot, or NoHandle if the pool is
// exhausted. O(1); never blocks; never allocates from the OS.
func (p *Pool[T]) Allocate() Handle {
	p.lock.lock()
	if p.top < 0 {
		p.lock.unlock()
		return NoHandle
	}
	idx := p.free[p.top]
	p.top--
	p.lock.unlock()

	atomic.AddInt64(&p.inUse.Value, 1)
	return Handle(idx)
}

// Deallocate returns a handle to the pool. Zeroing the slot is the
// caller's responsibility and must happen before this call — the
// critical section here never touches the payload, only the free stack.
func (p *Pool[T]) Deallocate(h Handle) {
	if h < 0 || int(h) >= len(p.arena) {
		panic("pool: deallocate of out-of-range handle")
	}

	p.lock.lock()
	p.top++
	p.free[p.top] = int32(h)
	p.lock.unlock()

	atomic.AddInt64(&p.inUse.Value, -1)
}

// Get returns a pointer to the slot's payload for in-place mutation.
func (p *Pool[T]) Get(h Handle) *T {
	return &p.arena[h]
}

// InUse returns the number of currently allocated slots.
func (p *Pool[T]) InUse() int {
	return int(atomic.LoadInt64(&p.inUse.Value))
}

// Free returns the number of currently available slots.
func (p *Pool[T]) Free() int {
	return p.Capacity() - p.InUse()
}

// Capacity returns the fixed slot count the pool was constructed with.
func (p *Pool[T]) Capacity() int {
	return len(p.arena)
}
