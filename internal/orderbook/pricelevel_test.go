package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLevelAppendPreservesArrivalOrder(t *testing.T) {
	pl := NewPriceLevel(100)
	pl.Append(IndexEntry{OrderId: 1, Qty: 5})
	pl.Append(IndexEntry{OrderId: 2, Qty: 10})

	entries := pl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), uint64(entries[0].OrderId))
	assert.Equal(t, uint64(2), uint64(entries[1].OrderId))
	assert.Equal(t, uint64(15), pl.TotalQty)
}

func TestPriceLevelRemoveHeadAdvancesHead(t *testing.T) {
	pl := NewPriceLevel(100)
	n1 := pl.Append(IndexEntry{OrderId: 1, Qty: 5})
	pl.Append(IndexEntry{OrderId: 2, Qty: 10})

	pl.Remove(n1)

	assert.Equal(t, 1, pl.Count())
	assert.Equal(t, uint64(10), pl.TotalQty)
	entries := pl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), uint64(entries[0].OrderId))
}

func TestPriceLevelRemoveLastNodeEmptiesLevel(t *testing.T) {
	pl := NewPriceLevel(100)
	n1 := pl.Append(IndexEntry{OrderId: 1, Qty: 5})

	pl.Remove(n1)

	assert.True(t, pl.IsEmpty())
	assert.Equal(t, uint64(0), pl.TotalQty)
}

func TestPriceLevelRemoveNilIsNoOp(t *testing.T) {
	pl := NewPriceLevel(100)
	pl.Append(IndexEntry{OrderId: 1, Qty: 5})

	assert.NotPanics(t, func() { pl.Remove(nil) })
	assert.Equal(t, 1, pl.Count())
}

func TestPriceLevelUpdateQtyAppliesPositiveAndNegativeDeltas(t *testing.T) {
	pl := NewPriceLevel(100)
	pl.Append(IndexEntry{OrderId: 1, Qty: 10})

	pl.UpdateQty(5)
	assert.Equal(t, uint64(15), pl.TotalQty)

	pl.UpdateQty(-8)
	assert.Equal(t, uint64(7), pl.TotalQty)
}

func TestPriceLevelHeadReflectsOldestOrder(t *testing.T) {
	pl := NewPriceLevel(100)
	pl.Append(IndexEntry{OrderId: 1, Qty: 5})
	pl.Append(IndexEntry{OrderId: 2, Qty: 10})

	head := pl.Head()
	require.NotNil(t, head)
	assert.Equal(t, uint64(1), uint64(head.entry.OrderId))
}
