package orderbook

import (
	"github.com/rishav/hft-trade-core/internal/types"
)

// OrderIndex is the cold, order-ID-indexed price-time-priority structure
// described in SPEC_FULL.md's [MODULE] Order Book section: two RBTrees
// (bids descending, asks ascending) of PriceLevel, plus an order-ID map
// for O(1) removal. internal/ordermanager uses one OrderIndex per ticker
// to answer "list every resting order" and to support MoveOrders without
// scanning the whole order table — it is never read from the market-data
// hot path, only from order-lifecycle operations.
type OrderIndex struct {
	bids  *RBTree
	asks  *RBTree
	nodes map[types.OrderId]*indexNode
}

// NewOrderIndex constructs an empty index.
func NewOrderIndex() *OrderIndex {
	return &OrderIndex{
		bids:  NewRBTree(true),
		asks:  NewRBTree(false),
		nodes: make(map[types.OrderId]*indexNode),
	}
}

func (idx *OrderIndex) tree(side types.Side) *RBTree {
	if side == types.SideBuy {
		return idx.bids
	}
	return idx.asks
}

// Insert adds a resting order at the given price/side.
func (idx *OrderIndex) Insert(side types.Side, price types.Price, e IndexEntry) {
	tree := idx.tree(side)
	level := tree.Get(price)
	if level == nil {
		level = NewPriceLevel(price)
		tree.Insert(level)
	}
	idx.nodes[e.OrderId] = level.Append(e)
}

// Remove drops a resting order from the index.
func (idx *OrderIndex) Remove(side types.Side, price types.Price, id types.OrderId) {
	node, ok := idx.nodes[id]
	if !ok {
		return
	}
	level := node.level
	level.Remove(node)
	delete(idx.nodes, id)
	if level.IsEmpty() {
		idx.tree(side).Delete(price)
	}
}

// Best returns the best (price, level) pair for a side, or (InvalidPrice,
// nil) if empty.
func (idx *OrderIndex) Best(side types.Side) (types.Price, *PriceLevel) {
	level := idx.tree(side).Min()
	if level == nil {
		return types.InvalidPrice, nil
	}
	return level.Price, level
}

// Levels returns up to maxLevels price levels for a side, best first. For
// admin/debug use; allocates.
func (idx *OrderIndex) Levels(side types.Side, maxLevels int) []*PriceLevel {
	result := make([]*PriceLevel, 0)
	count := 0
	idx.tree(side).ForEach(func(level *PriceLevel) bool {
		result = append(result, level)
		count++
		return maxLevels <= 0 || count < maxLevels
	})
	return result
}

// Count returns the total number of indexed orders.
func (idx *OrderIndex) Count() int {
	return len(idx.nodes)
}
