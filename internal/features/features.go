// Package features derives per-instrument microstructure signals from
// the order book and trade tape: fair price, spread, imbalance, VWAP,
// aggressive-trade ratio, momentum, and volatility (spec.md §4.6).
//
// New module — the teacher has no equivalent. Struct shape is grounded on
// the teacher's internal/marketdata/publisher.go L1Quote/TradeReport
// (Symbol/Timestamp-first, flat exported numeric fields); the rolling
// window for momentum/volatility is grounded on
// web3guy0-polybot/feeds/indicators.go's fixed-size circular buffer with
// an incrementally maintained mean/variance instead of recomputing from
// scratch on every sample.
package features

import (
	"math"

	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/types"
)

// DepthLevels is the number of top-of-book levels folded into the
// depth-weighted bid/ask and size-weighted micro price (spec.md §4.6: "K
// constant, e.g. 5").
const DepthLevels = 5

// WindowSize is the length of the circular window fed by fair price and
// trade price samples, used for momentum/volatility (spec.md §4.6: "W
// (e.g. 20)").
const WindowSize = 20

// Snapshot is the emitted feature set for one instrument. All fields are
// float64; NaN denotes "not yet computable" per spec.md §3 item 4.
type Snapshot struct {
	Ticker               types.TickerId
	FairPrice            float64
	Spread               float64
	SpreadBps            float64
	Imbalance            float64
	MicroPrice           float64
	Vwap                 float64
	AggressiveTradeRatio float64
	Momentum             float64
	Volatility           float64
	LastUpdateNs         types.Timestamp
	Valid                bool
}

// window is a fixed-size circular buffer with an incrementally
// maintained sum and sum-of-squares, so momentum/volatility are O(1) per
// sample instead of O(W).
type window struct {
	buf      [WindowSize]float64
	filled   int
	next     int
	sum      float64
	sumSq    float64
}

func (w *window) push(v float64) {
	if w.filled == WindowSize {
		old := w.buf[w.next]
		w.sum -= old
		w.sumSq -= old * old
	} else {
		w.filled++
	}
	w.buf[w.next] = v
	w.sum += v
	w.sumSq += v * v
	w.next = (w.next + 1) % WindowSize
}

func (w *window) mean() float64 {
	if w.filled == 0 {
		return math.NaN()
	}
	return w.sum / float64(w.filled)
}

func (w *window) variance() float64 {
	if w.filled == 0 {
		return math.NaN()
	}
	n := float64(w.filled)
	mean := w.sum / n
	v := w.sumSq/n - mean*mean
	if v < 0 {
		v = 0 // guard against float round-off
	}
	return v
}

func (w *window) ready() bool {
	return w.filled >= WindowSize/2
}

// tickerState is the per-ticker accumulator set.
type tickerState struct {
	fairWindow window

	vwapValueSum  float64
	vwapVolumeSum float64

	aggBuyVolume  float64
	aggSellVolume float64

	haveBid bool
	haveAsk bool

	last Snapshot
}

// Engine derives Snapshot per registered ticker from book updates and
// trade prints. One Engine instance serves every ticker known to the
// trade engine; it allocates nothing once tickers are registered.
type Engine struct {
	tickers []tickerState
}

// New constructs an Engine sized for maxTickers.
func New(maxTickers int) *Engine {
	return &Engine{tickers: make([]tickerState, maxTickers)}
}

// OnBookUpdate recomputes the book-derived features for ticker i after
// book has been mutated. Call this once per book update, before invoking
// strategies (spec.md §4.10 step 1b).
func (e *Engine) OnBookUpdate(i types.TickerId, book *orderbook.Book, ts types.Timestamp) Snapshot {
	st := &e.tickers[i]

	bid := book.BestBid()
	ask := book.BestAsk()
	st.haveBid = st.haveBid || bid != types.InvalidPrice
	st.haveAsk = st.haveAsk || ask != types.InvalidPrice

	snap := Snapshot{Ticker: i, LastUpdateNs: ts}

	if bid == types.InvalidPrice || ask == types.InvalidPrice || book.Crossed() {
		snap.FairPrice = math.NaN()
		snap.Spread = math.NaN()
		snap.SpreadBps = math.NaN()
		snap.Imbalance = math.NaN()
		snap.MicroPrice = math.NaN()
		snap.Valid = false
		st.last = snap
		return snap
	}

	bidQty := float64(book.BestBidQty())
	askQty := float64(book.BestAskQty())
	bidF := float64(bid)
	askF := float64(ask)

	spread := askF - bidF
	fair := (bidF*askQty + askF*bidQty) / (bidQty + askQty)
	micro := (bidF + askF) / 2
	imbalance := (bidQty - askQty) / (bidQty + askQty)

	// Depth-weighted bid/ask and size-weighted micro price over the top
	// K levels, when depth quantities are available.
	var depthBidNotional, depthBidQty, depthAskNotional, depthAskQty float64
	for lvl := 0; lvl < DepthLevels && lvl < book.Depth(); lvl++ {
		bp, bq, _ := book.Level(types.SideBuy, lvl)
		if bq > 0 {
			depthBidNotional += float64(bp) * float64(bq)
			depthBidQty += float64(bq)
		}
		ap, aq, _ := book.Level(types.SideSell, lvl)
		if aq > 0 {
			depthAskNotional += float64(ap) * float64(aq)
			depthAskQty += float64(aq)
		}
	}
	if depthBidQty > 0 && depthAskQty > 0 {
		depthWeightedBid := depthBidNotional / depthBidQty
		depthWeightedAsk := depthAskNotional / depthAskQty
		micro = (depthWeightedBid*depthAskQty + depthWeightedAsk*depthBidQty) / (depthBidQty + depthAskQty)
	}

	spreadBps := spread / fair * 10000

	snap.FairPrice = fair
	snap.Spread = spread
	snap.SpreadBps = spreadBps
	snap.Imbalance = imbalance
	snap.MicroPrice = micro
	snap.Valid = true

	st.fairWindow.push(fair)
	if st.fairWindow.ready() {
		mean := st.fairWindow.mean()
		snap.Momentum = (fair - mean) / mean * 10000
		snap.Volatility = math.Sqrt(st.fairWindow.variance()) / mean * 10000
	} else {
		snap.Momentum = math.NaN()
		snap.Volatility = math.NaN()
	}

	// Carry forward the trade-derived fields.
	snap.Vwap = st.last.Vwap
	snap.AggressiveTradeRatio = st.last.AggressiveTradeRatio

	st.last = snap
	return snap
}

// OnTrade folds a trade print into VWAP and the aggressive-trade ratio,
// and feeds the trade price through the same momentum/volatility window
// (spec.md §4.6).
func (e *Engine) OnTrade(i types.TickerId, price types.Price, qty types.Qty, side types.Side, ts types.Timestamp) Snapshot {
	st := &e.tickers[i]

	value := float64(price) * float64(qty)
	st.vwapValueSum += value
	st.vwapVolumeSum += float64(qty)

	if side == types.SideBuy {
		st.aggBuyVolume += float64(qty)
	} else {
		st.aggSellVolume += float64(qty)
	}

	snap := st.last
	snap.Ticker = i
	snap.LastUpdateNs = ts

	if st.vwapVolumeSum > 0 {
		snap.Vwap = st.vwapValueSum / st.vwapVolumeSum
	}
	total := st.aggBuyVolume + st.aggSellVolume
	if total > 0 {
		snap.AggressiveTradeRatio = st.aggBuyVolume / total
	}

	st.fairWindow.push(float64(price))
	if st.fairWindow.ready() {
		mean := st.fairWindow.mean()
		snap.Momentum = (float64(price) - mean) / mean * 10000
		snap.Volatility = math.Sqrt(st.fairWindow.variance()) / mean * 10000
	}

	st.last = snap
	return snap
}

// Last returns the most recently computed snapshot for ticker i without
// recomputing anything.
func (e *Engine) Last(i types.TickerId) Snapshot {
	return e.tickers[i].last
}
