// Package position implements the per-instrument position and P&L
// accounting of spec.md §4.7: net position, per-side WAC (weighted
// average cost) running averages, realized/unrealized P&L, and
// account-wide totals.
//
// Grounded on the teacher's internal/settlement/clearing.go Account{Cash,
// Holdings} bookkeeping style (tracking a per-symbol holding and a cash
// balance per account), generalized here from "account cash + holdings"
// into the WAC per-side accumulator model the spec requires, and scoped
// per-ticker rather than per-account since the core's job is to track the
// engine's own book, not a multi-tenant ledger (settlement's
// ClearingHouse, adapted separately, still owns the multi-account view).
package position

import (
	"sync/atomic"

	"github.com/rishav/hft-trade-core/internal/cachepad"
	"github.com/rishav/hft-trade-core/internal/types"
)

// Info is the per-instrument position/P&L record (spec.md §3 item 3).
type Info struct {
	NetPosition int64 // signed: +long, -short

	BuyVolume    uint64
	BuyNotional  uint64
	SellVolume   uint64
	SellNotional uint64

	AvgBuyPrice  int64
	AvgSellPrice int64

	RealizedPnl   int64
	UnrealizedPnl int64
	LastPrice     types.Price
}

// Keeper tracks Info per ticker plus aggregate totals. Sized at
// construction for MaxTickers; all operations are allocation-free, and
// all but TotalExposure are O(1).
type Keeper struct {
	positions []Info

	totalRealized   cachepad.Cell[int64]
	totalUnrealized cachepad.Cell[int64]
}

// New constructs a Keeper for maxTickers instruments.
func New(maxTickers int) *Keeper {
	return &Keeper{positions: make([]Info, maxTickers)}
}

// OnFill applies a single execution to ticker i's position, per spec.md
// §4.7: update per-side volume/notional, recompute the side's average
// price by exact integer division, update net position, and on a sell
// against prior buy inventory recognize realized P&L.
func (k *Keeper) OnFill(i types.TickerId, side types.Side, qty types.Qty, price types.Price) {
	p := &k.positions[i]

	if side == types.SideBuy {
		p.BuyVolume += uint64(qty)
		p.BuyNotional += uint64(qty) * uint64(price)
		if p.BuyVolume > 0 {
			p.AvgBuyPrice = int64(p.BuyNotional / p.BuyVolume)
		}
		p.NetPosition += int64(qty)
	} else {
		p.SellVolume += uint64(qty)
		p.SellNotional += uint64(qty) * uint64(price)
		if p.SellVolume > 0 {
			p.AvgSellPrice = int64(p.SellNotional / p.SellVolume)
		}
		p.NetPosition -= int64(qty)

		if p.AvgBuyPrice > 0 {
			realizedDelta := int64(qty) * (int64(price) - p.AvgBuyPrice)
			p.RealizedPnl += realizedDelta
			atomic.AddInt64(&k.totalRealized.Value, realizedDelta)
		}
	}

	k.updateUnrealized(i, price)
}

// OnMarketPrice updates the mark used for unrealized P&L without
// recording a fill (spec.md §4.7 "On market-price tick").
func (k *Keeper) OnMarketPrice(i types.TickerId, price types.Price) {
	k.positions[i].LastPrice = price
	k.updateUnrealized(i, price)
}

// updateUnrealized recomputes ticker i's unrealized mirror and folds the
// delta into the aggregate total via fetch-and-add, never a full
// recomputation (spec.md §4.7).
func (k *Keeper) updateUnrealized(i types.TickerId, price types.Price) {
	p := &k.positions[i]
	p.LastPrice = price

	var newUnrealized int64
	if p.NetPosition != 0 {
		refAvg := p.AvgBuyPrice
		if p.NetPosition < 0 {
			refAvg = p.AvgSellPrice
		}
		if refAvg > 0 {
			newUnrealized = p.NetPosition * (int64(price) - refAvg)
		}
	}

	delta := newUnrealized - p.UnrealizedPnl
	p.UnrealizedPnl = newUnrealized
	if delta != 0 {
		atomic.AddInt64(&k.totalUnrealized.Value, delta)
	}
}

// Get returns a copy of ticker i's position/P&L record.
func (k *Keeper) Get(i types.TickerId) Info {
	return k.positions[i]
}

// TotalRealizedPnl returns the account-wide realized P&L.
func (k *Keeper) TotalRealizedPnl() int64 {
	return atomic.LoadInt64(&k.totalRealized.Value)
}

// TotalUnrealizedPnl returns the account-wide unrealized P&L.
func (k *Keeper) TotalUnrealizedPnl() int64 {
	return atomic.LoadInt64(&k.totalUnrealized.Value)
}

// TotalPnl returns realized + unrealized.
func (k *Keeper) TotalPnl() int64 {
	return k.TotalRealizedPnl() + k.TotalUnrealizedPnl()
}

// TotalExposure returns Σ |position · last_price| across every
// registered ticker. O(maxTickers); intended for periodic risk snapshots,
// not the per-event hot path.
func (k *Keeper) TotalExposure() int64 {
	var total int64
	for idx := range k.positions {
		p := &k.positions[idx]
		exposure := p.NetPosition * int64(p.LastPrice)
		if exposure < 0 {
			exposure = -exposure
		}
		total += exposure
	}
	return total
}
