// Package engine implements the single-threaded trade-engine event loop
// of spec.md §4.10: drain market data, drain order responses, dispatch to
// strategies, emit a CPU pause hint when idle, check the running flag.
//
// Grounded on the teacher's internal/disruptor/processor.go processLoop
// (single goroutine, sequence-gated spin-wait, `running atomic.Bool`,
// graceful two-phase Shutdown) and internal/matching/engine.go's
// orchestration shape (book mutation followed by response generation),
// re-targeted from "match orders against a book" to spec.md §4.10's
// drain-MD / drain-responses / dispatch-to-strategies / pause-hint loop.
// The teacher's runtime.Gosched() in its spin-wait is not reused here:
// spec.md §5 forbids yielding to the kernel scheduler on the hot path, so
// idle iterations instead execute a small bounded empty spin as the
// nearest portable substitute for a CPU pause intrinsic (see DESIGN.md's
// Open Question resolution).
package engine

import (
	"sync/atomic"

	"github.com/rishav/hft-trade-core/internal/cachepad"
	"github.com/rishav/hft-trade-core/internal/clock"
	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/logging"
	"github.com/rishav/hft-trade-core/internal/mpmc"
	"github.com/rishav/hft-trade-core/internal/ordermanager"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/position"
	"github.com/rishav/hft-trade-core/internal/risk"
	"github.com/rishav/hft-trade-core/internal/settlement"
	"github.com/rishav/hft-trade-core/internal/spsc"
	"github.com/rishav/hft-trade-core/internal/strategy"
	"github.com/rishav/hft-trade-core/internal/types"
)

// Design constants for the bounded per-iteration drain (spec.md §4.10:
// "design constant, e.g. 100" / "e.g. 10").
const (
	DefaultMaxMdPerIteration = 100
	DefaultMaxOrPerIteration = 10

	// idleSpinIterations bounds the pause-hint spin so a stuck CPU never
	// locks up a test or a misconfigured deployment forever.
	idleSpinIterations = 64
)

// Counters are the observability atomics spec.md §5 calls for ("relaxed
// ordering; must not be read-modify-written inside unbounded loops").
type Counters struct {
	MsgsProcessed cachepad.Cell[uint64]
	OrdersSent    cachepad.Cell[uint64]
	Drops         cachepad.Cell[uint64]
}

// Config wires every collaborator the event loop needs. The rings, Books,
// Features, Positions, Risk and Orders are required; Clearing and
// Strategies are optional, and Clock, Log and the per-iteration limits
// fall back to defaults when left unset. Engine does not construct its
// own dependencies (Design Notes §9: dependency injection over global
// singletons).
type Config struct {
	MdRings   []*spsc.Ring[types.MarketUpdate] // one per venue feed handler
	RespRing  *mpmc.Ring[types.OrderResponse]  // shared across venue gateways
	ReqRing   *mpmc.Ring[types.OrderRequest]   // shared across venue gateways

	Books     []*orderbook.Book // indexed by TickerId
	Features  *features.Engine
	Positions *position.Keeper
	Risk      *risk.Manager
	Orders    *ordermanager.Manager

	// Clearing is optional: when set, every FILL is additionally recorded
	// for downstream netting/settlement. Runs inline on the engine's own
	// goroutine, so a caller wiring this in the hot path should batch or
	// defer slow work inside its own RecordFill-adjacent hook instead of
	// blocking here.
	Clearing *settlement.ClearingHouse

	Strategies []strategy.Strategy // dispatched by ticker

	Clock clock.Source
	Log   logging.Sink

	MaxMdPerIteration int
	MaxOrPerIteration int
}

// Engine is the trade-engine event loop of spec.md §4.10. It owns no
// goroutine of its own on construction; call Run (blocking) or RunOnce
// (single iteration, for tests) to drive it.
type Engine struct {
	cfg Config

	byTicker map[types.TickerId][]strategy.Strategy

	running     atomic.Bool
	lastEventNs types.Timestamp

	counters Counters
}

// New constructs an Engine from cfg. Strategies are indexed by ticker so
// dispatch never scans the full strategy set per event.
func New(cfg Config) *Engine {
	if cfg.MaxMdPerIteration <= 0 {
		cfg.MaxMdPerIteration = DefaultMaxMdPerIteration
	}
	if cfg.MaxOrPerIteration <= 0 {
		cfg.MaxOrPerIteration = DefaultMaxOrPerIteration
	}
	if cfg.Log == nil {
		cfg.Log = logging.Nop
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Monotonic
	}

	e := &Engine{
		cfg:      cfg,
		byTicker: make(map[types.TickerId][]strategy.Strategy, len(cfg.Strategies)),
	}
	for _, s := range cfg.Strategies {
		e.byTicker[s.Ticker()] = append(e.byTicker[s.Ticker()], s)
	}
	e.running.Store(true)
	return e
}

// AddStrategy registers a strategy after construction, for the common
// wiring case where a strategy itself needs the Engine (as an
// OrderSender) and so cannot be supplied via Config before New returns.
func (e *Engine) AddStrategy(s strategy.Strategy) {
	e.byTicker[s.Ticker()] = append(e.byTicker[s.Ticker()], s)
}

// Run blocks, executing RunOnce until Stop is called. Intended to run on
// a single pinned goroutine for the engine's lifetime.
func (e *Engine) Run() {
	for e.running.Load() {
		e.RunOnce()
	}
}

// Stop clears the running flag; the next check in Run's loop observes it
// and exits, and a Run started after Stop returns at once. RunOnce does
// not consult the flag. Cooperative, not preemptive, per spec.md §5.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// RunOnce executes exactly one iteration of spec.md §4.10's loop: drain
// MD, drain responses, pause-hint if neither made progress.
func (e *Engine) RunOnce() {
	madeProgress := e.drainMarketData()
	madeProgress = e.drainResponses() || madeProgress

	if !madeProgress {
		pauseHint()
	}
}

// drainMarketData drains up to MaxMdPerIteration market updates across
// every registered MD ring, applying each to its book, notifying the
// feature engine, and invoking strategies (spec.md §4.10 step 1).
func (e *Engine) drainMarketData() bool {
	progressed := false
	processed := 0

	for _, ring := range e.cfg.MdRings {
		for processed < e.cfg.MaxMdPerIteration {
			slot := ring.PeekRead()
			if slot == nil {
				break
			}
			upd := *slot
			ring.CommitRead()

			e.applyMarketUpdate(upd)

			processed++
			progressed = true
			atomic.AddUint64(&e.counters.MsgsProcessed.Value, 1)
		}
	}

	if progressed {
		e.lastEventNs = types.Timestamp(e.cfg.Clock())
	}
	return progressed
}

func (e *Engine) applyMarketUpdate(upd types.MarketUpdate) {
	book := e.cfg.Books[upd.Ticker]

	switch upd.Kind {
	case types.MarketUpdateBid:
		book.UpdateBid(upd.Level, upd.Price, upd.Qty, upd.Orders, upd.Ts)
	case types.MarketUpdateAsk:
		book.UpdateAsk(upd.Level, upd.Price, upd.Qty, upd.Orders, upd.Ts)
	case types.MarketUpdateTrade:
		e.cfg.Positions.OnMarketPrice(upd.Ticker, upd.Price)
		snap := e.cfg.Features.OnTrade(upd.Ticker, upd.Price, upd.Qty, upd.Side, upd.Ts)
		for _, s := range e.byTicker[upd.Ticker] {
			s.OnTrade(upd.Price, upd.Qty, upd.Side, upd.Ts)
		}
		_ = snap
		return
	}

	snap := e.cfg.Features.OnBookUpdate(upd.Ticker, book, upd.Ts)
	for _, s := range e.byTicker[upd.Ticker] {
		s.OnBookUpdate(book, snap, upd.Ts)
	}
}

// drainResponses drains up to MaxOrPerIteration order responses, routing
// each to the order manager and, on FILL, additionally updating the
// position keeper and risk manager mirrors (spec.md §4.10 step 2).
func (e *Engine) drainResponses() bool {
	progressed := false

	for i := 0; i < e.cfg.MaxOrPerIteration; i++ {
		resp, ok := e.cfg.RespRing.Dequeue()
		if !ok {
			break
		}
		e.applyOrderResponse(resp)
		progressed = true
		atomic.AddUint64(&e.counters.MsgsProcessed.Value, 1)
	}

	if progressed {
		e.lastEventNs = types.Timestamp(e.cfg.Clock())
	}
	return progressed
}

func (e *Engine) applyOrderResponse(resp types.OrderResponse) {
	now := e.cfg.Clock()

	switch resp.Kind {
	case types.OrderResponseAck:
		if !e.cfg.Orders.OnAck(resp.OrderId, types.Timestamp(now)) {
			e.cfg.Log.Warnf("ack for unknown order %d", resp.OrderId)
		}
	case types.OrderResponseReject:
		if !e.cfg.Orders.OnReject(resp.OrderId, types.Timestamp(now)) {
			e.cfg.Log.Warnf("reject for unknown order %d", resp.OrderId)
			return
		}
		e.cfg.Orders.Release(resp.OrderId)
	case types.OrderResponseCancel:
		if !e.cfg.Orders.OnCanceled(resp.OrderId, types.Timestamp(now)) {
			e.cfg.Log.Warnf("cancel confirm for unknown order %d", resp.OrderId)
			return
		}
		e.cfg.Orders.Release(resp.OrderId)
	case types.OrderResponseFill:
		fillQty := resp.Qty - resp.LeavesQty
		entry, ok := e.cfg.Orders.OnFill(resp.OrderId, fillQty, types.Timestamp(now))
		if !ok {
			e.cfg.Log.Warnf("fill for unknown order %d", resp.OrderId)
			return
		}
		e.cfg.Positions.OnFill(entry.Ticker, entry.Side, fillQty, resp.Price)
		info := e.cfg.Positions.Get(entry.Ticker)
		e.cfg.Risk.UpdatePositionMirror(entry.Ticker, info.NetPosition, int64(info.NetPosition)*int64(resp.Price))
		e.cfg.Risk.UpdatePnlMirror(entry.Ticker, info.RealizedPnl, info.UnrealizedPnl)
		if e.cfg.Clearing != nil {
			e.cfg.Clearing.RecordFill(entry.ClientId, entry.Ticker, entry.Side, fillQty, resp.Price, types.Timestamp(now))
		}
		if entry.Status == ordermanager.StatusFilled {
			e.cfg.Orders.Release(entry.OrderId)
		}
	}
}

// SendOrder implements spec.md §4.10's send_order: it risk-checks the
// order, creates a pending order only once the check passes, and
// enqueues the wire request, rolling the order back if the enqueue
// fails. Strategies call this rather than touching the order manager or
// request ring directly.
func (e *Engine) SendOrder(ticker types.TickerId, side types.Side, price types.Price, qty types.Qty) bool {
	now := types.Timestamp(e.cfg.Clock())

	verdict := e.cfg.Risk.CheckOrder(ticker, side, price, qty, now)
	if verdict != risk.Pass {
		atomic.AddUint64(&e.counters.Drops.Value, 1)
		e.cfg.Log.Infof("order rejected by risk check: ticker=%d side=%s verdict=%s", ticker, side, verdict)
		return false
	}

	id, ok := e.cfg.Orders.CreateOrder(0, ticker, side, price, qty, now)
	if !ok {
		atomic.AddUint64(&e.counters.Drops.Value, 1)
		e.cfg.Log.Warnf("order manager exhausted, dropping order ticker=%d", ticker)
		return false
	}

	req := types.OrderRequest{
		Kind:    types.OrderRequestNew,
		Ticker:  ticker,
		OrderId: id,
		Side:    side,
		Price:   price,
		Qty:     qty,
		Ts:      now,
	}
	if !e.cfg.ReqRing.Enqueue(req) {
		atomic.AddUint64(&e.counters.Drops.Value, 1)
		e.cfg.Log.Warnf("request ring full, dropping order %d", id)
		// The request never left the engine, so no venue will ever send a
		// response for it: reject and free the slot immediately instead of
		// stranding it in PENDING_NEW for the rest of the engine's lifetime.
		if e.cfg.Orders.OnReject(id, now) {
			e.cfg.Orders.Release(id)
		}
		return false
	}

	atomic.AddUint64(&e.counters.OrdersSent.Value, 1)
	return true
}

// Counters returns a snapshot of the observability counters.
func (e *Engine) Counters() Counters {
	return Counters{
		MsgsProcessed: cachepad.NewCell(atomic.LoadUint64(&e.counters.MsgsProcessed.Value)),
		OrdersSent:    cachepad.NewCell(atomic.LoadUint64(&e.counters.OrdersSent.Value)),
		Drops:         cachepad.NewCell(atomic.LoadUint64(&e.counters.Drops.Value)),
	}
}

// LastEventNs returns the timestamp captured after the most recent
// iteration that made progress (spec.md §4.10 "Progress accounting").
func (e *Engine) LastEventNs() types.Timestamp {
	return e.lastEventNs
}

// pauseHint spins briefly without yielding to the kernel scheduler,
// standing in for a CPU pause intrinsic Go does not expose (spec.md §5:
// "no sleep, no yield to the kernel").
func pauseHint() {
	for i := 0; i < idleSpinIterations; i++ {
		atomic.AddUint64(new(uint64), 0)
	}
}
