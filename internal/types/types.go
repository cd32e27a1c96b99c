// Package types defines the scalar data model shared by every component
// of the core: tickers, orders, prices, sides, and the three message
// records exchanged across the rings (spec.md §3).
//
// Prices and quantities are integer fixed-point (spec.md §3: "all
// prices/quantities are integer-encoded fixed-point so arithmetic is
// exact and branch-free"). The scaling factor is agreed out-of-band with
// the venue adapter and is opaque to the core; this package never
// converts to floating point. FormatPrice exists purely for
// human-readable logging/REPL output and never sits on the hot path —
// grounded on the teacher's orders.FormatPrice, generalized to use
// shopspring/decimal instead of hand-rolled cents math so formatting
// composes with arbitrary scale factors instead of assuming cents.
package types

import (
	"github.com/shopspring/decimal"
)

// TickerId densely indexes [0, MaxTickers) registered instruments.
type TickerId uint32

// OrderId is assigned monotonically by the order manager.
type OrderId uint64

// ClientId identifies the originating account/strategy.
type ClientId uint32

// Price is a scaled fixed-point integer. InvalidPrice marks "no price".
type Price int64

// InvalidPrice is the sentinel for an unset/unknown price.
const InvalidPrice Price = 1<<63 - 1

// Qty is an unsigned fixed-point quantity.
type Qty uint64

// Timestamp is nanoseconds since a monotonic epoch (see internal/clock).
type Timestamp uint64

// Side is BUY or SELL, encoded as 1/2 per spec.md §3.
type Side uint8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// MarketUpdateKind tags a MarketUpdate record.
type MarketUpdateKind uint8

const (
	MarketUpdateBid MarketUpdateKind = iota
	MarketUpdateAsk
	MarketUpdateTrade
)

// MarketUpdate is a single inbound market-data event (spec.md §3 item 6).
// BID/ASK carry (ticker, level, price, qty); TRADE carries (ticker, price,
// qty, side).
type MarketUpdate struct {
	Kind     MarketUpdateKind
	Ticker   TickerId
	Level    int
	Price    Price
	Qty      Qty
	Orders   uint32
	Side     Side
	Ts       Timestamp
}

// OrderRequestKind tags an OrderRequest record.
type OrderRequestKind uint8

const (
	OrderRequestNew OrderRequestKind = iota
	OrderRequestCancel
	OrderRequestModify
)

// OrderRequest is produced by the core and consumed by a gateway adapter
// (spec.md §3 item 6, §6 "Core produces").
type OrderRequest struct {
	Kind     OrderRequestKind
	ClientId ClientId
	Ticker   TickerId
	OrderId  OrderId
	Side     Side
	Price    Price
	Qty      Qty
	Ts       Timestamp
}

// OrderResponseKind tags an OrderResponse record.
type OrderResponseKind uint8

const (
	OrderResponseAck OrderResponseKind = iota
	OrderResponseFill
	OrderResponseCancel
	OrderResponseReject
)

// OrderResponse is produced by a gateway adapter and consumed by the core
// (spec.md §3 item 6, §6 "Core consumes").
type OrderResponse struct {
	Kind      OrderResponseKind
	ClientId  ClientId
	Ticker    TickerId
	OrderId   OrderId
	Side      Side
	Price     Price
	Qty       Qty
	LeavesQty Qty
	Ts        Timestamp
}

// FormatPrice renders a fixed-point Price as a decimal string given the
// venue's scale factor (number of fractional digits), for logs and the
// REPL only — never called from the hot path.
func FormatPrice(p Price, scale int32) string {
	if p == InvalidPrice {
		return "INVALID"
	}
	return decimal.New(int64(p), -scale).StringFixed(scale)
}

// ParsePrice converts a decimal string into a fixed-point Price at the
// given scale, for config/REPL input only.
func ParsePrice(s string, scale int32) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return Price(d.Shift(scale).IntPart()), nil
}
