// Package risk implements pre-trade admission control (spec.md §4.8):
// constant-time, deterministically ordered checks plus a rolling
// per-second order-rate limiter.
//
// Grounded directly on the teacher's internal/risk/checker.go (ordered
// checks, Config struct, reference-price tracking, position bookkeeping)
// but re-sequenced into spec.md §4.8's exact six-check order and
// returning one of the spec's named Result variants — "first failure
// wins" — instead of the teacher's free-text Reason string.
//
// The per-second order-rate counter (check 6) has no teacher equivalent.
// It is grounded on rishavpaul-system-design/rate-limiter/gateway's
// TokenBucket — a sibling repo by the same author, already in this pack —
// adapted from a Redis-backed token bucket (fixed bucket size, elapsed-
// time refill) down to the in-process fixed-window counter-plus-reset
// spec.md describes. The Redis round-trip that repo makes per check is
// exactly the kind of blocking call spec.md §5 forbids on the hot path,
// so it is not wired in here — see DESIGN.md.
package risk

import (
	"sync/atomic"

	"github.com/rishav/hft-trade-core/internal/cachepad"
	"github.com/rishav/hft-trade-core/internal/types"
)

// Result is the outcome of a pre-trade check (spec.md §4.8).
type Result uint8

const (
	Pass Result = iota
	OrderSizeBreach
	InvalidPrice
	PositionLimitBreach
	LossLimitBreach
	OrderRateBreach
	TickerOutOfRange
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case OrderSizeBreach:
		return "ORDER_SIZE_BREACH"
	case InvalidPrice:
		return "INVALID_PRICE"
	case PositionLimitBreach:
		return "POSITION_LIMIT_BREACH"
	case LossLimitBreach:
		return "LOSS_LIMIT_BREACH"
	case OrderRateBreach:
		return "ORDER_RATE_BREACH"
	case TickerOutOfRange:
		return "TICKER_OUT_OF_RANGE"
	default:
		return "UNKNOWN"
	}
}

// Config is the static per-ticker risk configuration (spec.md §3 item 5).
type Config struct {
	MaxPositionValue   int64
	MaxLoss            int64
	MaxOrderSize       types.Qty
	MaxOrderRatePerSec uint32
	MinPrice           types.Price
	MaxPrice           types.Price
}

// state is the mutable per-ticker risk state (spec.md §3 item 5), mirrors
// of position/P&L plus the rolling order-rate window.
type state struct {
	position       int64
	notional       int64
	realizedPnl    int64
	unrealizedPnl  int64
	orderCountThisSec uint32
	lastOrderNs    types.Timestamp
	cfg            Config
}

// Manager performs admission control for every registered ticker. Sized
// at construction; every operation is O(1) and allocation-free.
type Manager struct {
	tickers []cachepad.Cell[state]
}

// New constructs a Manager for maxTickers instruments, each configured
// with cfg. Per-ticker configs may be overridden with Configure.
func New(maxTickers int, cfg Config) *Manager {
	m := &Manager{tickers: make([]cachepad.Cell[state], maxTickers)}
	for i := range m.tickers {
		m.tickers[i].Value.cfg = cfg
	}
	return m
}

// Configure overrides the risk configuration for a single ticker.
func (m *Manager) Configure(i types.TickerId, cfg Config) {
	m.tickers[i].Value.cfg = cfg
}

// CheckOrder runs the six checks of spec.md §4.8 in their fixed order,
// returning the first failure, or Pass. On Pass it also applies the rate
// counter's side effect (increment + last-order timestamp update); on
// failure there is no side effect.
func (m *Manager) CheckOrder(i types.TickerId, side types.Side, price types.Price, qty types.Qty, nowNs types.Timestamp) Result {
	// 1. ticker in range
	if int(i) < 0 || int(i) >= len(m.tickers) {
		return TickerOutOfRange
	}
	st := &m.tickers[i].Value
	cfg := &st.cfg

	// 2. qty <= max_order_size
	if qty > cfg.MaxOrderSize {
		return OrderSizeBreach
	}

	// 3. min_price <= price <= max_price
	if price < cfg.MinPrice || price > cfg.MaxPrice {
		return InvalidPrice
	}

	// 4. |hypothetical_position| <= max_position_value. The order's own
	// submitted limit price plays no part here — it is not a reference
	// price, and using it would let a deep limit order manufacture an
	// arbitrarily large "notional" out of a tiny position.
	hypotheticalPos := st.position
	if side == types.SideBuy {
		hypotheticalPos += int64(qty)
	} else {
		hypotheticalPos -= int64(qty)
	}
	if hypotheticalPos < 0 {
		hypotheticalPos = -hypotheticalPos
	}
	if hypotheticalPos > cfg.MaxPositionValue {
		return PositionLimitBreach
	}

	// 5. realized + unrealized total PnL >= -max_loss
	if st.realizedPnl+st.unrealizedPnl < -cfg.MaxLoss {
		return LossLimitBreach
	}

	// 6. rolling 1-second order-rate counter
	const oneSecondNs = types.Timestamp(1_000_000_000)
	if nowNs-st.lastOrderNs >= oneSecondNs {
		st.orderCountThisSec = 0
	}
	if st.orderCountThisSec+1 > cfg.MaxOrderRatePerSec {
		return OrderRateBreach
	}

	// All checks passed: apply rate-limiter side effects.
	st.orderCountThisSec++
	st.lastOrderNs = nowNs

	return Pass
}

// UpdatePositionMirror keeps the risk manager's position/notional mirror
// in sync with internal/position.Keeper after a fill.
func (m *Manager) UpdatePositionMirror(i types.TickerId, netPosition int64, notional int64) {
	st := &m.tickers[i].Value
	st.position = netPosition
	st.notional = notional
}

// UpdatePnlMirror keeps the risk manager's realized/unrealized P&L
// mirror in sync with internal/position.Keeper.
func (m *Manager) UpdatePnlMirror(i types.TickerId, realized, unrealized int64) {
	st := &m.tickers[i].Value
	st.realizedPnl = realized
	st.unrealizedPnl = unrealized
}

// FlattenAll atomically zeroes the position/notional mirrors for every
// ticker. Emergency control; used only off the hot path.
func (m *Manager) FlattenAll() {
	for idx := range m.tickers {
		st := &m.tickers[idx].Value
		atomic.StoreInt64(&st.position, 0)
		atomic.StoreInt64(&st.notional, 0)
	}
}
