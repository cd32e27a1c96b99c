// Package strategy defines the pure-consumer contract the trade engine
// dispatches book/trade events to, plus the two reference strategies of
// spec.md §4.11 (MarketMaker, LiquidityTaker).
//
// Interface shape is grounded on web3guy0-polybot/strategy/interface.go's
// plug-in `Strategy` (Name/OnTick/Enabled/Config) generalized from a
// single `OnTick` callback into the book/trade split spec.md §4.10 calls
// out, and trimmed of the polymarket-specific Signal/SignalBuilder
// machinery since this core's strategies act directly through
// order_manager/trade_engine rather than emitting a signal for a
// separate executor to pick up. Sizing concentration is grounded on
// web3guy0-polybot/risk/sizing.go's inventory-proportional reduction
// idiom, adapted here from an equity-percentage sizer to spec.md §4.11's
// "reduced when |position| exceeds half max_position" rule.
package strategy

import (
	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/position"
	"github.com/rishav/hft-trade-core/internal/types"
)

// Strategy is implemented by every reference (and user) strategy. Both
// methods must allocate nothing and never block (spec.md §4.11 "pure
// consumers... allocate nothing in hot paths").
type Strategy interface {
	Ticker() types.TickerId
	OnBookUpdate(book *orderbook.Book, feat features.Snapshot, ts types.Timestamp)
	OnTrade(price types.Price, qty types.Qty, side types.Side, ts types.Timestamp)
}

// OrderMover is the subset of internal/ordermanager.Manager the
// MarketMaker strategy depends on.
type OrderMover interface {
	MoveOrders(ticker types.TickerId, bid, ask types.Price, clip types.Qty, nowNs types.Timestamp)
}

// OrderSender is the subset of the trade engine's send path the
// LiquidityTaker strategy depends on (spec.md §4.10 send_order).
type OrderSender interface {
	SendOrder(ticker types.TickerId, side types.Side, price types.Price, qty types.Qty) bool
}

// PositionReader is the subset of internal/position.Keeper strategies
// read from for inventory-aware sizing.
type PositionReader interface {
	Get(i types.TickerId) position.Info
}
