package wsfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/hft-trade-core/internal/spsc"
	"github.com/rishav/hft-trade-core/internal/types"
)

func newTestFeed(scale int32) *Feed {
	ring := spsc.New[types.MarketUpdate](8)
	return New(Config{Scale: scale}, ring, nil)
}

func TestDecodeBidScalesPrice(t *testing.T) {
	f := newTestFeed(2)
	upd, ok := f.decode([]byte(`{"type":"bid","ticker":1,"level":0,"price":"100.25","qty":10,"orders":2}`))
	require.True(t, ok)

	assert.Equal(t, types.MarketUpdateBid, upd.Kind)
	assert.Equal(t, types.TickerId(1), upd.Ticker)
	assert.Equal(t, types.Price(10025), upd.Price)
	assert.Equal(t, types.Qty(10), upd.Qty)
}

func TestDecodeTradeSetsSide(t *testing.T) {
	f := newTestFeed(0)
	upd, ok := f.decode([]byte(`{"type":"trade","ticker":2,"price":"50","qty":5,"side":"sell"}`))
	require.True(t, ok)

	assert.Equal(t, types.MarketUpdateTrade, upd.Kind)
	assert.Equal(t, types.SideSell, upd.Side)
}

func TestDecodeTradeDefaultsToBuySide(t *testing.T) {
	f := newTestFeed(0)
	upd, ok := f.decode([]byte(`{"type":"trade","ticker":2,"price":"50","qty":5}`))
	require.True(t, ok)
	assert.Equal(t, types.SideBuy, upd.Side)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	f := newTestFeed(0)
	_, ok := f.decode([]byte(`not json`))
	assert.False(t, ok)
}

func TestDecodeRejectsMalformedPrice(t *testing.T) {
	f := newTestFeed(0)
	_, ok := f.decode([]byte(`{"type":"bid","price":"not-a-number"}`))
	assert.False(t, ok)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	f := newTestFeed(0)
	_, ok := f.decode([]byte(`{"type":"heartbeat","price":"1"}`))
	assert.False(t, ok)
}

func TestPublishDropsWhenRingFull(t *testing.T) {
	ring := spsc.New[types.MarketUpdate](2) // 1 usable slot
	f := New(Config{}, ring, nil)

	f.publish(types.MarketUpdate{Ticker: 1})
	assert.NotPanics(t, func() { f.publish(types.MarketUpdate{Ticker: 2}) })

	slot := ring.PeekRead()
	require.NotNil(t, slot)
	assert.Equal(t, types.TickerId(1), slot.Ticker)
	ring.CommitRead()
	assert.Nil(t, ring.PeekRead())
}
