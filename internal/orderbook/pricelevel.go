// Package orderbook implements both the spec's fixed-depth aggregated
// ladder (orderbook.go, the hot-path structure spec.md §4.5 specifies) and a
// cold, order-ID-indexed price-time-priority index (this file + rbtree.go)
// used by internal/ordermanager for admin operations like active-order
// listing and reprice-in-place — the teacher's original order book was
// entirely the latter shape; it is kept here, adapted to index opaque
// order handles instead of a full order record.
package orderbook

import (
	"github.com/rishav/hft-trade-core/internal/types"
)

// IndexEntry is what the cold price-time index tracks per resting order:
// enough to sort and report on it without owning the order's full state
// (which lives in internal/ordermanager's direct-indexed table).
type IndexEntry struct {
	OrderId types.OrderId
	Qty     types.Qty
}

// indexNode is a node in the doubly-linked list of entries at a price
// level, preserving arrival order for time priority.
type indexNode struct {
	entry IndexEntry
	prev  *indexNode
	next  *indexNode
	level *PriceLevel
}

// Next returns the next node in the queue.
func (n *indexNode) Next() *indexNode {
	return n.next
}

// PriceLevel holds every resting order at one price, oldest first.
type PriceLevel struct {
	Price    types.Price
	head     *indexNode
	tail     *indexNode
	count    int
	TotalQty uint64
}

// NewPriceLevel creates a new empty price level.
func NewPriceLevel(price types.Price) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Count returns the number of orders at this price level.
func (pl *PriceLevel) Count() int { return pl.count }

// IsEmpty returns true if there are no orders at this level.
func (pl *PriceLevel) IsEmpty() bool { return pl.count == 0 }

// Head returns the first node (highest time priority).
func (pl *PriceLevel) Head() *indexNode { return pl.head }

// Append adds an entry to the end of the queue. O(1).
func (pl *PriceLevel) Append(e IndexEntry) *indexNode {
	node := &indexNode{entry: e, level: pl}

	if pl.tail == nil {
		pl.head = node
		pl.tail = node
	} else {
		node.prev = pl.tail
		pl.tail.next = node
		pl.tail = node
	}

	pl.count++
	pl.TotalQty += uint64(e.Qty)
	return node
}

// Remove removes a node from the queue. O(1).
func (pl *PriceLevel) Remove(node *indexNode) {
	if node == nil {
		return
	}

	pl.TotalQty -= uint64(node.entry.Qty)
	pl.count--

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		pl.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		pl.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	node.level = nil
}

// UpdateQty adjusts TotalQty when an order at this level is partially
// filled or repriced.
func (pl *PriceLevel) UpdateQty(delta int64) {
	if delta < 0 {
		pl.TotalQty -= uint64(-delta)
	} else {
		pl.TotalQty += uint64(delta)
	}
}

// Entries returns every entry at this level, oldest first. Allocates; for
// admin/debug paths only.
func (pl *PriceLevel) Entries() []IndexEntry {
	result := make([]IndexEntry, 0, pl.count)
	for node := pl.head; node != nil; node = node.next {
		result = append(result, node.entry)
	}
	return result
}
