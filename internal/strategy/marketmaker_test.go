package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/position"
	"github.com/rishav/hft-trade-core/internal/types"
)

type fakeMover struct {
	called bool
	ticker types.TickerId
	bid    types.Price
	ask    types.Price
	clip   types.Qty
}

func (f *fakeMover) MoveOrders(ticker types.TickerId, bid, ask types.Price, clip types.Qty, nowNs types.Timestamp) {
	f.called = true
	f.ticker = ticker
	f.bid = bid
	f.ask = ask
	f.clip = clip
}

type fakePositionReader struct {
	info position.Info
}

func (f *fakePositionReader) Get(types.TickerId) position.Info { return f.info }

func TestMarketMakerSkipsNarrowSpread(t *testing.T) {
	mover := &fakeMover{}
	pos := &fakePositionReader{}
	mm := NewMarketMaker(MarketMakerConfig{
		Ticker:             0,
		SpreadBpsThreshold: 5,
		QuoteOffset:        2,
		BaseClip:           100,
		MaxPosition:        1000,
	}, mover, pos)

	mm.OnBookUpdate(nil, features.Snapshot{Valid: true, SpreadBps: 1, FairPrice: 100}, 0)

	assert.False(t, mover.called)
}

func TestMarketMakerQuotesWhenSpreadWideEnough(t *testing.T) {
	mover := &fakeMover{}
	pos := &fakePositionReader{}
	mm := NewMarketMaker(MarketMakerConfig{
		Ticker:             3,
		SpreadBpsThreshold: 5,
		QuoteOffset:        2,
		BaseClip:           100,
		MaxPosition:        1000,
	}, mover, pos)

	mm.OnBookUpdate(nil, features.Snapshot{Valid: true, SpreadBps: 10, FairPrice: 100}, 42)

	assert.True(t, mover.called)
	assert.Equal(t, types.TickerId(3), mover.ticker)
	assert.Equal(t, types.Price(98), mover.bid)
	assert.Equal(t, types.Price(102), mover.ask)
	assert.Equal(t, types.Qty(100), mover.clip)
}

func TestMarketMakerSkewsQuotesWithInventory(t *testing.T) {
	mover := &fakeMover{}
	pos := &fakePositionReader{info: position.Info{NetPosition: 1000}} // at max long
	mm := NewMarketMaker(MarketMakerConfig{
		Ticker:             0,
		SpreadBpsThreshold: 5,
		QuoteOffset:        10,
		BaseClip:           100,
		MaxPosition:        1000,
	}, mover, pos)

	mm.OnBookUpdate(nil, features.Snapshot{Valid: true, SpreadBps: 10, FairPrice: 100}, 0)

	// fully long: skew = 1.0 * QuoteOffset = 10, both quotes pulled down by 10
	assert.Equal(t, types.Price(80), mover.bid)
	assert.Equal(t, types.Price(100), mover.ask)
}

func TestMarketMakerHalvesClipPastHalfPositionLimit(t *testing.T) {
	mover := &fakeMover{}
	pos := &fakePositionReader{info: position.Info{NetPosition: 600}} // past half of 1000
	mm := NewMarketMaker(MarketMakerConfig{
		Ticker:             0,
		SpreadBpsThreshold: 5,
		QuoteOffset:        2,
		BaseClip:           100,
		MaxPosition:        1000,
	}, mover, pos)

	mm.OnBookUpdate(nil, features.Snapshot{Valid: true, SpreadBps: 10, FairPrice: 100}, 0)

	assert.Equal(t, types.Qty(50), mover.clip)
}

func TestMarketMakerIgnoresInvalidSnapshot(t *testing.T) {
	mover := &fakeMover{}
	pos := &fakePositionReader{}
	mm := NewMarketMaker(MarketMakerConfig{Ticker: 0, SpreadBpsThreshold: 5}, mover, pos)

	mm.OnBookUpdate(&orderbook.Book{}, features.Snapshot{Valid: false, SpreadBps: 100}, 0)

	assert.False(t, mover.called)
}

func TestMarketMakerOnTradeIsNoOp(t *testing.T) {
	mover := &fakeMover{}
	pos := &fakePositionReader{}
	mm := NewMarketMaker(MarketMakerConfig{Ticker: 0}, mover, pos)

	assert.NotPanics(t, func() { mm.OnTrade(100, 10, types.SideBuy, 0) })
}
