package orderbook

import (
	"github.com/rishav/hft-trade-core/internal/types"
)

// Book is the fixed-depth aggregated price ladder of spec.md §4.5: two
// parallel sets of arrays (price, qty, order count) per side, top-D
// levels, level 0 = best. The core deliberately does not insert/shift to
// maintain sort order — "the venue sets the level" (§4.5). A snapshot
// feed handler clears and rewrites every level; an incremental feed
// handler writes a single index. Either way the write is O(1) and
// allocation-free once Book is constructed.
type Book struct {
	depth int

	bidPrice []types.Price
	bidQty   []types.Qty
	bidOrds  []uint32

	askPrice []types.Price
	askQty   []types.Qty
	askOrds  []uint32

	lastUpdateNs types.Timestamp
}

// NewBook constructs a book with the given fixed depth.
func NewBook(depth int) *Book {
	b := &Book{
		depth:    depth,
		bidPrice: make([]types.Price, depth),
		bidQty:   make([]types.Qty, depth),
		bidOrds:  make([]uint32, depth),
		askPrice: make([]types.Price, depth),
		askQty:   make([]types.Qty, depth),
		askOrds:  make([]uint32, depth),
	}
	b.ClearBids()
	b.ClearAsks()
	return b
}

// Depth returns the fixed number of levels retained per side.
func (b *Book) Depth() int { return b.depth }

// UpdateBid writes a specific bid level. O(1), no allocation.
func (b *Book) UpdateBid(level int, price types.Price, qty types.Qty, orderCount uint32, ts types.Timestamp) {
	b.bidPrice[level] = price
	b.bidQty[level] = qty
	b.bidOrds[level] = orderCount
	b.lastUpdateNs = ts
}

// UpdateAsk writes a specific ask level. O(1), no allocation.
func (b *Book) UpdateAsk(level int, price types.Price, qty types.Qty, orderCount uint32, ts types.Timestamp) {
	b.askPrice[level] = price
	b.askQty[level] = qty
	b.askOrds[level] = orderCount
	b.lastUpdateNs = ts
}

// ClearBids empties every bid level. Used by snapshot-style feed handlers
// ahead of a full rewrite.
func (b *Book) ClearBids() {
	for i := 0; i < b.depth; i++ {
		b.bidPrice[i] = types.InvalidPrice
		b.bidQty[i] = 0
		b.bidOrds[i] = 0
	}
}

// ClearAsks empties every ask level.
func (b *Book) ClearAsks() {
	for i := 0; i < b.depth; i++ {
		b.askPrice[i] = types.InvalidPrice
		b.askQty[i] = 0
		b.askOrds[i] = 0
	}
}

// levelEmpty reports whether a level is empty: a qty of zero is treated
// as empty regardless of the stored price (spec.md §4.5 invariant).
func levelEmpty(qty types.Qty) bool {
	return qty == 0
}

// BestBid returns the top bid price, or types.InvalidPrice if level 0 is
// empty.
func (b *Book) BestBid() types.Price {
	if levelEmpty(b.bidQty[0]) {
		return types.InvalidPrice
	}
	return b.bidPrice[0]
}

// BestAsk returns the top ask price, or types.InvalidPrice if level 0 is
// empty.
func (b *Book) BestAsk() types.Price {
	if levelEmpty(b.askQty[0]) {
		return types.InvalidPrice
	}
	return b.askPrice[0]
}

// BestBidQty returns the quantity at the top bid level.
func (b *Book) BestBidQty() types.Qty { return b.bidQty[0] }

// BestAskQty returns the quantity at the top ask level.
func (b *Book) BestAskQty() types.Qty { return b.askQty[0] }

// Level returns the (price, qty, orderCount) tuple at index i on the
// given side.
func (b *Book) Level(side types.Side, i int) (types.Price, types.Qty, uint32) {
	if side == types.SideBuy {
		return b.bidPrice[i], b.bidQty[i], b.bidOrds[i]
	}
	return b.askPrice[i], b.askQty[i], b.askOrds[i]
}

// LastUpdateNs returns the most recent publisher timestamp, used by the
// feature engine to compute staleness.
func (b *Book) LastUpdateNs() types.Timestamp { return b.lastUpdateNs }

// Crossed reports whether the book is transiently crossed (best bid at or
// above best ask, both sides non-empty). spec.md §4.5: permitted
// transiently but must resolve by the next update; features treat this as
// "undefined" and skip emission.
func (b *Book) Crossed() bool {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == types.InvalidPrice || ask == types.InvalidPrice {
		return false
	}
	return bid >= ask
}

// DepthSummary is a snapshot of the top levels for display/debug use; it
// allocates and must never be called from the hot path.
type DepthSummary struct {
	Bids []LevelView
	Asks []LevelView
}

// LevelView is one printable ladder level.
type LevelView struct {
	Price types.Price
	Qty   types.Qty
	Count uint32
}

// Snapshot returns the top `levels` of both sides (0 = all configured
// depth). For REPL/dashboard use only.
func (b *Book) Snapshot(levels int) DepthSummary {
	if levels <= 0 || levels > b.depth {
		levels = b.depth
	}
	out := DepthSummary{
		Bids: make([]LevelView, 0, levels),
		Asks: make([]LevelView, 0, levels),
	}
	for i := 0; i < levels; i++ {
		if !levelEmpty(b.bidQty[i]) {
			out.Bids = append(out.Bids, LevelView{b.bidPrice[i], b.bidQty[i], b.bidOrds[i]})
		}
		if !levelEmpty(b.askQty[i]) {
			out.Asks = append(out.Asks, LevelView{b.askPrice[i], b.askQty[i], b.askOrds[i]})
		}
	}
	return out
}
