package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateAssignsDistinctHandles(t *testing.T) {
	p := New[int](4)
	seen := map[Handle]bool{}
	for i := 0; i < 4; i++ {
		h := p.Allocate()
		require.NotEqual(t, NoHandle, h)
		assert.False(t, seen[h], "handle %d allocated twice", h)
		seen[h] = true
	}
	assert.Equal(t, 4, p.InUse())
	assert.Equal(t, 0, p.Free())
}

func TestAllocateExhaustedReturnsNoHandle(t *testing.T) {
	p := New[int](2)
	p.Allocate()
	p.Allocate()
	assert.Equal(t, NoHandle, p.Allocate())
}

func TestDeallocateReturnsSlotToFreeList(t *testing.T) {
	p := New[string](1)
	h := p.Allocate()
	require.NotEqual(t, NoHandle, h)
	require.Equal(t, NoHandle, p.Allocate())

	p.Deallocate(h)
	assert.Equal(t, 1, p.Free())

	h2 := p.Allocate()
	assert.NotEqual(t, NoHandle, h2)
}

func TestGetReturnsMutableSlot(t *testing.T) {
	p := New[int](1)
	h := p.Allocate()
	*p.Get(h) = 99
	assert.Equal(t, 99, *p.Get(h))
}

func TestDeallocateOutOfRangePanics(t *testing.T) {
	p := New[int](1)
	assert.Panics(t, func() { p.Deallocate(Handle(5)) })
}

func TestConcurrentAllocateDeallocateStaysConsistent(t *testing.T) {
	const capacity = 64
	p := New[int](capacity)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h := p.Allocate()
				if h == NoHandle {
					continue
				}
				p.Deallocate(h)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, capacity, p.Free())
}
