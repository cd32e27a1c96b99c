package strategy

import (
	"math"

	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/types"
)

// MarketMakerConfig holds the tunables of spec.md §4.11's MarketMaker.
type MarketMakerConfig struct {
	Ticker             types.TickerId
	SpreadBpsThreshold float64
	QuoteOffset        types.Price // distance from fair price for the unskewed quote
	BaseClip           types.Qty
	MaxPosition        int64
}

// MarketMaker quotes around fair price when the book is wide enough to
// be worth making, skewing toward flat inventory and shrinking size as
// position approaches its limit (spec.md §4.11).
type MarketMaker struct {
	cfg   MarketMakerConfig
	mover OrderMover
	pos   PositionReader
}

// NewMarketMaker constructs a MarketMaker quoting cfg.Ticker, repricing
// resting orders through mover and reading inventory through pos.
func NewMarketMaker(cfg MarketMakerConfig, mover OrderMover, pos PositionReader) *MarketMaker {
	return &MarketMaker{cfg: cfg, mover: mover, pos: pos}
}

func (mm *MarketMaker) Ticker() types.TickerId { return mm.cfg.Ticker }

// OnBookUpdate recomputes the quote pair whenever spread_bps exceeds the
// configured threshold, skewing around current net position and
// reducing clip once |position| exceeds half of MaxPosition.
func (mm *MarketMaker) OnBookUpdate(book *orderbook.Book, feat features.Snapshot, ts types.Timestamp) {
	if !feat.Valid || math.IsNaN(feat.SpreadBps) || feat.SpreadBps < mm.cfg.SpreadBpsThreshold {
		return
	}

	fair := feat.FairPrice
	net := mm.pos.Get(mm.cfg.Ticker).NetPosition

	// Skew: a long position pulls both quotes down (encourage selling),
	// a short position pushes them up (encourage buying). Skew magnitude
	// is proportional to inventory relative to the position limit.
	var skewRatio float64
	if mm.cfg.MaxPosition > 0 {
		skewRatio = float64(net) / float64(mm.cfg.MaxPosition)
	}
	skew := types.Price(skewRatio * float64(mm.cfg.QuoteOffset))

	bidTarget := types.Price(fair) - mm.cfg.QuoteOffset - skew
	askTarget := types.Price(fair) + mm.cfg.QuoteOffset - skew

	clip := mm.cfg.BaseClip
	halfLimit := mm.cfg.MaxPosition / 2
	absNet := net
	if absNet < 0 {
		absNet = -absNet
	}
	if mm.cfg.MaxPosition > 0 && absNet > halfLimit {
		clip = clip / 2
	}
	if clip == 0 {
		clip = 1
	}

	mm.mover.MoveOrders(mm.cfg.Ticker, bidTarget, askTarget, clip, ts)
}

// OnTrade is a no-op for MarketMaker: quoting reacts to book state, not
// individual prints.
func (mm *MarketMaker) OnTrade(types.Price, types.Qty, types.Side, types.Timestamp) {}
