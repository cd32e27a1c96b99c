package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/types"
)

func TestOnBookUpdateInvalidWhenBookEmpty(t *testing.T) {
	e := New(1)
	book := orderbook.NewBook(5)

	snap := e.OnBookUpdate(0, book, 0)

	assert.False(t, snap.Valid)
	assert.True(t, math.IsNaN(snap.FairPrice))
}

func TestOnBookUpdateComputesFairPriceAndSpread(t *testing.T) {
	e := New(1)
	book := orderbook.NewBook(5)
	book.UpdateBid(0, 100, 10, 1, 0)
	book.UpdateAsk(0, 102, 10, 1, 0)

	snap := e.OnBookUpdate(0, book, 1)

	require.True(t, snap.Valid)
	assert.Equal(t, 101.0, snap.FairPrice) // equal sizes -> midpoint
	assert.Equal(t, 2.0, snap.Spread)
	assert.Equal(t, 0.0, snap.Imbalance)
}

func TestOnBookUpdateImbalanceFavorsLargerSide(t *testing.T) {
	e := New(1)
	book := orderbook.NewBook(5)
	book.UpdateBid(0, 100, 30, 1, 0)
	book.UpdateAsk(0, 102, 10, 1, 0)

	snap := e.OnBookUpdate(0, book, 1)

	assert.True(t, snap.Imbalance > 0, "larger bid size should produce positive imbalance")
}

func TestOnTradeUpdatesVwapAndAggressiveRatio(t *testing.T) {
	e := New(1)
	e.OnTrade(0, 100, 10, types.SideBuy, 0)
	e.OnTrade(0, 110, 10, types.SideSell, 1)

	snap := e.Last(0)
	assert.Equal(t, 105.0, snap.Vwap)
	assert.Equal(t, 0.5, snap.AggressiveTradeRatio)
}

func TestMomentumIsNaNBeforeWindowHalfFull(t *testing.T) {
	e := New(1)
	book := orderbook.NewBook(5)
	book.UpdateBid(0, 100, 10, 1, 0)
	book.UpdateAsk(0, 102, 10, 1, 0)

	snap := e.OnBookUpdate(0, book, 0)
	assert.True(t, math.IsNaN(snap.Momentum))
}

func TestMomentumBecomesFiniteOnceWindowIsHalfFull(t *testing.T) {
	e := New(1)
	book := orderbook.NewBook(5)
	var snap Snapshot
	for i := 0; i < WindowSize/2; i++ {
		book.UpdateBid(0, types.Price(100+i), 10, 1, types.Timestamp(i))
		book.UpdateAsk(0, types.Price(102+i), 10, 1, types.Timestamp(i))
		snap = e.OnBookUpdate(0, book, types.Timestamp(i))
	}
	assert.False(t, math.IsNaN(snap.Momentum))
	assert.False(t, math.IsNaN(snap.Volatility))
}

func TestLastReturnsMostRecentSnapshotWithoutRecomputing(t *testing.T) {
	e := New(1)
	book := orderbook.NewBook(5)
	book.UpdateBid(0, 100, 10, 1, 0)
	book.UpdateAsk(0, 102, 10, 1, 0)
	want := e.OnBookUpdate(0, book, 5)

	got := e.Last(0)
	assert.Equal(t, want, got)
}
