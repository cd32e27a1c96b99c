// Package ordermanager owns the full lifecycle of every order the core
// itself originates (spec.md §4.9): a direct-indexed table keyed by
// order ID modulo capacity, and the state machine PENDING_NEW -> LIVE ->
// {PENDING_CANCEL -> CANCELED, PENDING_MODIFY -> LIVE, FILLED}, with
// REJECTED reachable from PENDING_NEW.
//
// Grounded on the teacher's internal/orders/types.go Order/OrderStatus
// shape (status enum with a String method, RemainingQty/IsActive helpers)
// generalized from the teacher's single matching-status machine into the
// spec's richer pending/acked lifecycle, and on internal/pool.Pool for
// the direct-indexed, allocation-free table (spec.md §4.9: "array
// indexed by id mod MaxOrders").
package ordermanager

import (
	"fmt"

	"github.com/rishav/hft-trade-core/internal/cachepad"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/types"
)

// Status is an order's position in the lifecycle state machine (spec.md
// §4.9).
type Status uint8

const (
	StatusFree Status = iota
	StatusPendingNew
	StatusLive
	StatusPendingCancel
	StatusPendingModify
	StatusCanceled
	StatusFilled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "FREE"
	case StatusPendingNew:
		return "PENDING_NEW"
	case StatusLive:
		return "LIVE"
	case StatusPendingCancel:
		return "PENDING_CANCEL"
	case StatusPendingModify:
		return "PENDING_MODIFY"
	case StatusCanceled:
		return "CANCELED"
	case StatusFilled:
		return "FILLED"
	case StatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one order's full record, stored directly in the table (no
// pointer indirection on the hot path).
type Entry struct {
	OrderId    types.OrderId
	ClientId   types.ClientId
	Ticker     types.TickerId
	Side       types.Side
	Price      types.Price
	Qty        types.Qty
	LeavesQty  types.Qty
	Status     Status
	CreatedNs  types.Timestamp
	UpdatedNs  types.Timestamp
}

// IsActive reports whether the order can still receive fills or updates.
func (e *Entry) IsActive() bool {
	switch e.Status {
	case StatusPendingNew, StatusLive, StatusPendingCancel, StatusPendingModify:
		return true
	default:
		return false
	}
}

// String renders an Entry for logs, in the teacher's Order.String style.
func (e *Entry) String() string {
	return fmt.Sprintf("Order{ID:%d, %s ticker=%d %d@%d, leaves=%d, status=%s}",
		e.OrderId, e.Side, e.Ticker, e.Qty, e.Price, e.LeavesQty, e.Status)
}

// Manager is the direct-indexed order table of spec.md §4.9. Capacity is
// fixed at construction; slots are found by (id mod capacity) with
// bounded linear probing on collision, so every operation stays O(1)
// amortized and allocation-free.
type Manager struct {
	capacity int
	slots    []cachepad.Cell[Entry]
	nextId   types.OrderId

	indexes []*orderbook.OrderIndex // one cold price-time index per ticker
}

// New constructs a Manager with room for `capacity` concurrently
// outstanding orders and a cold order index for each of `maxTickers`
// instruments.
func New(capacity int, maxTickers int) *Manager {
	m := &Manager{
		capacity: capacity,
		slots:    make([]cachepad.Cell[Entry], capacity),
		indexes:  make([]*orderbook.OrderIndex, maxTickers),
	}
	for i := range m.indexes {
		m.indexes[i] = orderbook.NewOrderIndex()
	}
	return m
}

// slotFor locates the table slot for id, starting at id mod capacity and
// probing linearly. match decides whether an occupied slot is considered
// a hit (used to find an order by ID) or a miss (used to find a free
// slot for a new order). Returns (-1, false) if the whole table was
// probed without success — this indicates the table is full or the ID
// isn't resident, never expected in steady-state operation sized per
// spec.md §3's MaxOrders budget.
func (m *Manager) slotFor(id types.OrderId, match func(*Entry) bool) (int, bool) {
	start := int(id) % m.capacity
	for probe := 0; probe < m.capacity; probe++ {
		idx := (start + probe) % m.capacity
		if match(&m.slots[idx].Value) {
			return idx, true
		}
	}
	return -1, false
}

// CreateOrder allocates a new order in PENDING_NEW; it enters the
// ticker's cold index only on OnAck. Returns the assigned OrderId, or
// false if the table has no free slot.
func (m *Manager) CreateOrder(clientId types.ClientId, ticker types.TickerId, side types.Side, price types.Price, qty types.Qty, nowNs types.Timestamp) (types.OrderId, bool) {
	id := m.nextId
	idx, ok := m.slotFor(types.OrderId(int(id)%m.capacity), func(e *Entry) bool {
		return e.Status == StatusFree
	})
	if !ok {
		return 0, false
	}
	m.nextId++

	e := &m.slots[idx].Value
	*e = Entry{
		OrderId:   id,
		ClientId:  clientId,
		Ticker:    ticker,
		Side:      side,
		Price:     price,
		Qty:       qty,
		LeavesQty: qty,
		Status:    StatusPendingNew,
		CreatedNs: nowNs,
		UpdatedNs: nowNs,
	}
	return id, true
}

// find locates the live slot for an order ID.
func (m *Manager) find(id types.OrderId) (*Entry, bool) {
	idx, ok := m.slotFor(id, func(e *Entry) bool {
		return e.Status != StatusFree && e.OrderId == id
	})
	if !ok {
		return nil, false
	}
	return &m.slots[idx].Value, true
}

// OnAck transitions a PENDING_NEW order to LIVE and registers it in the
// ticker's cold price-time index (spec.md §4.9 "on acknowledgment").
func (m *Manager) OnAck(id types.OrderId, nowNs types.Timestamp) bool {
	e, ok := m.find(id)
	if !ok || e.Status != StatusPendingNew {
		return false
	}
	e.Status = StatusLive
	e.UpdatedNs = nowNs
	m.indexes[e.Ticker].Insert(e.Side, e.Price, orderbook.IndexEntry{OrderId: e.OrderId, Qty: e.LeavesQty})
	return true
}

// OnReject transitions a PENDING_NEW order to REJECTED.
func (m *Manager) OnReject(id types.OrderId, nowNs types.Timestamp) bool {
	e, ok := m.find(id)
	if !ok || e.Status != StatusPendingNew {
		return false
	}
	e.Status = StatusRejected
	e.UpdatedNs = nowNs
	return true
}

// OnFill applies an execution to a LIVE order: reduces LeavesQty and
// transitions to FILLED once it reaches zero, removing the order from
// the cold index at that point. A partial fill leaves the order's index
// entry in place.
func (m *Manager) OnFill(id types.OrderId, fillQty types.Qty, nowNs types.Timestamp) (*Entry, bool) {
	e, ok := m.find(id)
	if !ok || !e.IsActive() {
		return nil, false
	}
	if fillQty > e.LeavesQty {
		fillQty = e.LeavesQty
	}
	e.LeavesQty -= fillQty
	e.UpdatedNs = nowNs

	if e.LeavesQty == 0 {
		e.Status = StatusFilled
		m.indexes[e.Ticker].Remove(e.Side, e.Price, e.OrderId)
	}
	return e, true
}

// RequestCancel transitions a LIVE order to PENDING_CANCEL (spec.md §4.9
// cancel_order). The order leaves the active book only once the gateway
// confirms via OnCanceled.
func (m *Manager) RequestCancel(id types.OrderId, nowNs types.Timestamp) bool {
	e, ok := m.find(id)
	if !ok || e.Status != StatusLive {
		return false
	}
	e.Status = StatusPendingCancel
	e.UpdatedNs = nowNs
	return true
}

// OnCanceled confirms a pending cancel, removing the order from the cold
// index and marking it terminal.
func (m *Manager) OnCanceled(id types.OrderId, nowNs types.Timestamp) bool {
	e, ok := m.find(id)
	if !ok || e.Status != StatusPendingCancel {
		return false
	}
	e.Status = StatusCanceled
	e.UpdatedNs = nowNs
	m.indexes[e.Ticker].Remove(e.Side, e.Price, e.OrderId)
	return true
}

// RequestModify transitions a LIVE order to PENDING_MODIFY (spec.md
// §4.9 modify_order). newPrice/newQty take effect on confirmation via
// OnModified; the order keeps its old index entry until then.
func (m *Manager) RequestModify(id types.OrderId, nowNs types.Timestamp) bool {
	e, ok := m.find(id)
	if !ok || e.Status != StatusLive {
		return false
	}
	e.Status = StatusPendingModify
	e.UpdatedNs = nowNs
	return true
}

// OnModified confirms a pending modify: re-indexes the order at its new
// price and resets LeavesQty, then returns the order to LIVE.
func (m *Manager) OnModified(id types.OrderId, newPrice types.Price, newQty types.Qty, nowNs types.Timestamp) bool {
	e, ok := m.find(id)
	if !ok || e.Status != StatusPendingModify {
		return false
	}
	m.indexes[e.Ticker].Remove(e.Side, e.Price, e.OrderId)
	e.Price = newPrice
	e.Qty = newQty
	e.LeavesQty = newQty
	e.Status = StatusLive
	e.UpdatedNs = nowNs
	m.indexes[e.Ticker].Insert(e.Side, e.Price, orderbook.IndexEntry{OrderId: e.OrderId, Qty: e.LeavesQty})
	return true
}

// MoveOrders reprices every LIVE order on a ticker in place so buys sit
// at or below bid and sells sit at or above ask, capping outstanding
// leaves at clip (spec.md §4.9 move_orders — used by the market-making
// strategy to keep its quotes pinned to the top of book without
// cancel/replace round trips through a venue). This reprices directly,
// bypassing PENDING_MODIFY: spec.md describes it as an in-process
// repositioning the strategy drives every tick, not a request the
// engine waits on a venue to confirm.
func (m *Manager) MoveOrders(ticker types.TickerId, bid, ask types.Price, clip types.Qty, nowNs types.Timestamp) {
	for _, side := range [...]types.Side{types.SideBuy, types.SideSell} {
		for _, entry := range m.ActiveOrders(ticker, side) {
			e, ok := m.find(entry.OrderId)
			if !ok || e.Status != StatusLive {
				continue
			}

			target := bid
			if side == types.SideSell {
				target = ask
			}

			newQty := e.Qty
			if newQty > clip {
				newQty = clip
			}

			m.indexes[ticker].Remove(e.Side, e.Price, e.OrderId)
			e.Price = target
			e.Qty = newQty
			if e.LeavesQty > newQty {
				e.LeavesQty = newQty
			}
			e.UpdatedNs = nowNs
			m.indexes[ticker].Insert(e.Side, e.Price, orderbook.IndexEntry{OrderId: e.OrderId, Qty: e.LeavesQty})
		}
	}
}

// Release returns a terminated order's slot to the free pool (spec.md
// §4.9: "marks the slot inactive (returning the id to the pool after any
// observer has consumed the terminal event)"). It is the caller's
// responsibility to read whatever it needs from the entry (via the
// return value of OnFill/OnReject/OnCanceled, or a prior Get) before
// calling Release — this does not happen automatically inside those
// transitions, or the observer would never see the terminal status.
// Returns false if the order is unknown or still active; a live order is
// never released.
func (m *Manager) Release(id types.OrderId) bool {
	e, ok := m.find(id)
	if !ok || e.IsActive() {
		return false
	}
	*e = Entry{}
	return true
}

// Get returns a copy of an order's current record.
func (m *Manager) Get(id types.OrderId) (Entry, bool) {
	e, ok := m.find(id)
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// ActiveOrders returns every active order for a ticker in price-time
// priority, best price first. Allocates; for strategy/admin use only,
// never the per-event hot path.
func (m *Manager) ActiveOrders(ticker types.TickerId, side types.Side) []orderbook.IndexEntry {
	var out []orderbook.IndexEntry
	for _, level := range m.indexes[ticker].Levels(side, 0) {
		out = append(out, level.Entries()...)
	}
	return out
}

// CancelAll requests cancellation of every LIVE order on a ticker/side,
// returning the IDs for which a cancel request was raised (spec.md §4.9
// cancel_all).
func (m *Manager) CancelAll(ticker types.TickerId, side types.Side, nowNs types.Timestamp) []types.OrderId {
	var canceled []types.OrderId
	for _, entry := range m.ActiveOrders(ticker, side) {
		if m.RequestCancel(entry.OrderId, nowNs) {
			canceled = append(canceled, entry.OrderId)
		}
	}
	return canceled
}
