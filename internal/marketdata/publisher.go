// Package marketdata distributes derived feature snapshots and
// top-of-book updates to external subscribers (dashboards, REPLs,
// downstream analytics) — the "L1/L2 distribution" story spec.md §6
// alludes to ("there is no file format defined by the core") without
// specifying, since that distribution sits outside the core boundary.
//
// Grounded on the teacher's internal/marketdata/publisher.go: per-symbol
// and per-all-subscribers channel fan-out, non-blocking publish (a full
// subscriber channel drops the update rather than stalling the
// publisher). Retargeted from string Symbol keys and raw int64
// price/quantity fields onto types.TickerId and internal/features.Snapshot
// plus a compact top-of-book view of internal/orderbook.Book.
package marketdata

import (
	"sync"

	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/types"
)

// TopOfBook is a compact best-bid/best-ask view for external display.
type TopOfBook struct {
	Ticker   types.TickerId
	BidPrice types.Price
	BidQty   types.Qty
	AskPrice types.Price
	AskQty   types.Qty
	Ts       types.Timestamp
}

// Publisher fans out feature snapshots and top-of-book updates to
// subscriber channels. It never sits on the trade engine's own hot path:
// the engine (or an adapter reading the engine's state) calls Publish*
// from outside the per-event loop, e.g. once per N iterations.
type Publisher struct {
	mu sync.RWMutex

	snapshotSubs map[types.TickerId][]chan features.Snapshot
	topSubs      map[types.TickerId][]chan TopOfBook

	allSnapshotSubs []chan features.Snapshot
	allTopSubs      []chan TopOfBook

	bufferSize int
}

// NewPublisher constructs a Publisher whose subscriber channels are
// sized bufferSize (default 100).
func NewPublisher(bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Publisher{
		snapshotSubs: make(map[types.TickerId][]chan features.Snapshot),
		topSubs:      make(map[types.TickerId][]chan TopOfBook),
		bufferSize:   bufferSize,
	}
}

// SubscribeSnapshot subscribes to feature snapshots for one ticker.
func (p *Publisher) SubscribeSnapshot(ticker types.TickerId) <-chan features.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan features.Snapshot, p.bufferSize)
	p.snapshotSubs[ticker] = append(p.snapshotSubs[ticker], ch)
	return ch
}

// SubscribeAllSnapshots subscribes to feature snapshots across every
// ticker.
func (p *Publisher) SubscribeAllSnapshots() <-chan features.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan features.Snapshot, p.bufferSize)
	p.allSnapshotSubs = append(p.allSnapshotSubs, ch)
	return ch
}

// SubscribeTopOfBook subscribes to top-of-book updates for one ticker.
func (p *Publisher) SubscribeTopOfBook(ticker types.TickerId) <-chan TopOfBook {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan TopOfBook, p.bufferSize)
	p.topSubs[ticker] = append(p.topSubs[ticker], ch)
	return ch
}

// SubscribeAllTopOfBook subscribes to top-of-book updates across every
// ticker.
func (p *Publisher) SubscribeAllTopOfBook() <-chan TopOfBook {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan TopOfBook, p.bufferSize)
	p.allTopSubs = append(p.allTopSubs, ch)
	return ch
}

// PublishSnapshot fans a feature snapshot out to its ticker's
// subscribers and the all-tickers subscribers. Non-blocking: a full
// subscriber channel means that subscriber is slow, and the update is
// dropped for it rather than stalling every other subscriber.
func (p *Publisher) PublishSnapshot(snap features.Snapshot) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.snapshotSubs[snap.Ticker] {
		select {
		case ch <- snap:
		default:
		}
	}
	for _, ch := range p.allSnapshotSubs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// PublishTopOfBook fans a top-of-book update out the same way.
func (p *Publisher) PublishTopOfBook(top TopOfBook) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.topSubs[top.Ticker] {
		select {
		case ch <- top:
		default:
		}
	}
	for _, ch := range p.allTopSubs {
		select {
		case ch <- top:
		default:
		}
	}
}

// Close closes every subscriber channel.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, subs := range p.snapshotSubs {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, subs := range p.topSubs {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, ch := range p.allSnapshotSubs {
		close(ch)
	}
	for _, ch := range p.allTopSubs {
		close(ch)
	}
}
