// Package wsfeed is an illustrative venue feed-handler adapter: it dials
// a WebSocket market-data stream, decodes each tick, and pushes it onto
// an SPSC ring the trade engine drains — the producer side of spec.md
// §4.3's MD ring contract. It lives firmly outside the core boundary
// (spec.md §6: "everything past the ring is out of scope"), one
// goroutine per venue connection, never sharing the engine's goroutine.
//
// Grounded on the teacher's reconnect-loop shape from the retrieval
// pack's Binance client (web3guy0-polybot/internal/binance/client.go):
// a dial-then-read loop, a running flag, and an unconditional reconnect
// with backoff on read error. Decimal venue prices are scaled into the
// core's fixed-point types.Price via shopspring/decimal, matching
// types.ParsePrice's own use of decimal.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/rishav/hft-trade-core/internal/logging"
	"github.com/rishav/hft-trade-core/internal/spsc"
	"github.com/rishav/hft-trade-core/internal/types"
)

// tick is the wire shape this adapter expects from the venue: a single
// JSON object per message, one of a book-level update or a trade print.
type tick struct {
	Type   string `json:"type"` // "bid", "ask", or "trade"
	Ticker uint32 `json:"ticker"`
	Level  int    `json:"level"`
	Price  string `json:"price"`
	Qty    uint64 `json:"qty"`
	Orders uint32 `json:"orders"`
	Side   string `json:"side"` // trade only: "buy" or "sell"
}

// Scale is the number of fractional digits the venue's decimal prices
// carry; ticks are converted to the core's scaled-integer types.Price by
// this factor, per spec.md §3's "scaling factor is agreed out-of-band".
type Config struct {
	URL           string
	Scale         int32
	DialTimeout   time.Duration
	ReconnectWait time.Duration
}

// Feed dials Config.URL and republishes decoded ticks onto Ring. Run
// blocks until ctx is canceled, reconnecting on any read error.
type Feed struct {
	cfg  Config
	ring *spsc.Ring[types.MarketUpdate]
	log  logging.Sink
}

// New constructs a Feed publishing onto ring.
func New(cfg Config, ring *spsc.Ring[types.MarketUpdate], log logging.Sink) *Feed {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = time.Second
	}
	if log == nil {
		log = logging.Nop
	}
	return &Feed{cfg: cfg, ring: ring, log: log}
}

// Run dials and reads until ctx is canceled, reconnecting on error.
func (f *Feed) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := f.runOnce(ctx); err != nil {
			f.log.Warnf("wsfeed: %v, reconnecting in %s", err, f.cfg.ReconnectWait)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.cfg.ReconnectWait):
		}
	}
}

func (f *Feed) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.cfg.URL, err)
	}
	defer conn.Close()

	f.log.Infof("wsfeed: connected to %s", f.cfg.URL)

	for {
		if ctx.Err() != nil {
			return nil
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		upd, ok := f.decode(data)
		if !ok {
			continue
		}
		f.publish(upd)
	}
}

func (f *Feed) decode(data []byte) (types.MarketUpdate, bool) {
	var t tick
	if err := json.Unmarshal(data, &t); err != nil {
		f.log.Warnf("wsfeed: malformed tick: %v", err)
		return types.MarketUpdate{}, false
	}

	price, err := decimal.NewFromString(t.Price)
	if err != nil {
		f.log.Warnf("wsfeed: malformed price %q: %v", t.Price, err)
		return types.MarketUpdate{}, false
	}
	scaled := price.Shift(f.cfg.Scale).Round(0).IntPart()

	upd := types.MarketUpdate{
		Ticker: types.TickerId(t.Ticker),
		Level:  t.Level,
		Price:  types.Price(scaled),
		Qty:    types.Qty(t.Qty),
		Orders: t.Orders,
		Ts:     types.Timestamp(time.Now().UnixNano()),
	}

	switch t.Type {
	case "bid":
		upd.Kind = types.MarketUpdateBid
	case "ask":
		upd.Kind = types.MarketUpdateAsk
	case "trade":
		upd.Kind = types.MarketUpdateTrade
		if t.Side == "sell" {
			upd.Side = types.SideSell
		} else {
			upd.Side = types.SideBuy
		}
	default:
		f.log.Warnf("wsfeed: unknown tick type %q", t.Type)
		return types.MarketUpdate{}, false
	}
	return upd, true
}

// publish writes upd into the ring, dropping it if the engine hasn't
// caught up — the ring is bounded and this adapter must never block on
// a slow consumer.
func (f *Feed) publish(upd types.MarketUpdate) {
	slot := f.ring.ReserveWrite()
	if slot == nil {
		f.log.Warnf("wsfeed: ring full, dropping tick for ticker %d", upd.Ticker)
		return
	}
	*slot = upd
	f.ring.CommitWrite()
}
