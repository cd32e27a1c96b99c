package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rishav/hft-trade-core/internal/types"
)

func TestNewBookStartsEmpty(t *testing.T) {
	b := NewBook(5)
	assert.Equal(t, types.InvalidPrice, b.BestBid())
	assert.Equal(t, types.InvalidPrice, b.BestAsk())
}

func TestUpdateBidAskSetsBestLevels(t *testing.T) {
	b := NewBook(5)
	b.UpdateBid(0, 100, 10, 2, 1)
	b.UpdateAsk(0, 105, 8, 1, 1)

	assert.Equal(t, types.Price(100), b.BestBid())
	assert.Equal(t, types.Qty(10), b.BestBidQty())
	assert.Equal(t, types.Price(105), b.BestAsk())
	assert.Equal(t, types.Qty(8), b.BestAskQty())
}

func TestZeroQtyLevelIsTreatedAsEmpty(t *testing.T) {
	b := NewBook(5)
	b.UpdateBid(0, 100, 0, 0, 1)
	assert.Equal(t, types.InvalidPrice, b.BestBid())
}

func TestClearBidsResetsAllLevels(t *testing.T) {
	b := NewBook(3)
	b.UpdateBid(0, 100, 10, 1, 0)
	b.UpdateBid(1, 99, 10, 1, 0)

	b.ClearBids()

	assert.Equal(t, types.InvalidPrice, b.BestBid())
	price, qty, _ := b.Level(types.SideBuy, 1)
	assert.Equal(t, types.InvalidPrice, price)
	assert.Equal(t, types.Qty(0), qty)
}

func TestCrossedDetectsBidAtOrAboveAsk(t *testing.T) {
	b := NewBook(5)
	b.UpdateBid(0, 105, 10, 1, 0)
	b.UpdateAsk(0, 100, 10, 1, 0)
	assert.True(t, b.Crossed())
}

func TestCrossedFalseWhenOneSideEmpty(t *testing.T) {
	b := NewBook(5)
	b.UpdateBid(0, 105, 10, 1, 0)
	assert.False(t, b.Crossed())
}

func TestSnapshotOmitsEmptyLevels(t *testing.T) {
	b := NewBook(3)
	b.UpdateBid(0, 100, 10, 1, 0)
	b.UpdateAsk(0, 102, 5, 1, 0)

	summary := b.Snapshot(0)
	assert.Len(t, summary.Bids, 1)
	assert.Len(t, summary.Asks, 1)
	assert.Equal(t, types.Price(100), summary.Bids[0].Price)
}
