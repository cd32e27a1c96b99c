package strategy

import (
	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/types"
)

// LiquidityTakerConfig holds the tunables of spec.md §4.11's
// LiquidityTaker.
type LiquidityTakerConfig struct {
	Ticker            types.TickerId
	WindowTrades       int     // rolling trade count considered for asymmetry
	AsymmetryThreshold float64 // buy_volume/(buy+sell) beyond which it fires long, below (1-threshold) fires short
	CooldownNs         types.Timestamp
	Qty                types.Qty
}

// LiquidityTaker watches the rolling buy/sell volume ratio of the trade
// tape and, once it tips far enough and the cooldown since the last
// order has elapsed, sends an aggressive marketable order in the
// direction of the imbalance (spec.md §4.11).
type LiquidityTaker struct {
	cfg    LiquidityTakerConfig
	sender OrderSender

	buyVol  []float64
	sellVol []float64
	next    int
	filled  int

	lastOrderNs types.Timestamp
	hasOrdered  bool
}

// NewLiquidityTaker constructs a LiquidityTaker quoting cfg.Ticker,
// sending orders through sender.
func NewLiquidityTaker(cfg LiquidityTakerConfig, sender OrderSender) *LiquidityTaker {
	return &LiquidityTaker{
		cfg:     cfg,
		sender:  sender,
		buyVol:  make([]float64, cfg.WindowTrades),
		sellVol: make([]float64, cfg.WindowTrades),
	}
}

func (lt *LiquidityTaker) Ticker() types.TickerId { return lt.cfg.Ticker }

// OnBookUpdate is a no-op: LiquidityTaker reacts only to trade prints.
func (lt *LiquidityTaker) OnBookUpdate(*orderbook.Book, features.Snapshot, types.Timestamp) {}

// OnTrade folds the print into the rolling buy/sell volume window and,
// once the window is full and the ratio crosses the configured
// asymmetry threshold, fires a marketable order if the cooldown has
// elapsed.
func (lt *LiquidityTaker) OnTrade(price types.Price, qty types.Qty, side types.Side, ts types.Timestamp) {
	if lt.filled < len(lt.buyVol) {
		lt.filled++
	}
	lt.buyVol[lt.next] = 0
	lt.sellVol[lt.next] = 0
	if side == types.SideBuy {
		lt.buyVol[lt.next] = float64(qty)
	} else {
		lt.sellVol[lt.next] = float64(qty)
	}
	lt.next = (lt.next + 1) % len(lt.buyVol)

	if lt.filled < len(lt.buyVol) {
		return
	}

	var buySum, sellSum float64
	for i := range lt.buyVol {
		buySum += lt.buyVol[i]
		sellSum += lt.sellVol[i]
	}
	total := buySum + sellSum
	if total == 0 {
		return
	}
	ratio := buySum / total

	if lt.hasOrdered && ts-lt.lastOrderNs < lt.cfg.CooldownNs {
		return
	}

	switch {
	case ratio >= lt.cfg.AsymmetryThreshold:
		if lt.sender.SendOrder(lt.cfg.Ticker, types.SideBuy, price, lt.cfg.Qty) {
			lt.lastOrderNs, lt.hasOrdered = ts, true
		}
	case ratio <= 1-lt.cfg.AsymmetryThreshold:
		if lt.sender.SendOrder(lt.cfg.Ticker, types.SideSell, price, lt.cfg.Qty) {
			lt.lastOrderNs, lt.hasOrdered = ts, true
		}
	}
}
