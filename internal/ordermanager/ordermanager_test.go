package ordermanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/hft-trade-core/internal/types"
)

func TestCreateOrderStartsPendingNew(t *testing.T) {
	m := New(16, 1)
	id, ok := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	require.True(t, ok)

	e, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusPendingNew, e.Status)
	assert.Equal(t, types.Qty(10), e.LeavesQty)
	assert.True(t, e.IsActive())
}

func TestOnAckTransitionsToLiveAndIndexes(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)

	require.True(t, m.OnAck(id, 1001))

	e, _ := m.Get(id)
	assert.Equal(t, StatusLive, e.Status)
	assert.Len(t, m.ActiveOrders(0, types.SideBuy), 1)
}

func TestOnAckRejectsNonPendingNew(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	require.True(t, m.OnAck(id, 1001))

	assert.False(t, m.OnAck(id, 1002))
}

func TestOnRejectTransitionsToRejected(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)

	require.True(t, m.OnReject(id, 1001))

	e, _ := m.Get(id)
	assert.Equal(t, StatusRejected, e.Status)
	assert.False(t, e.IsActive())
}

func TestOnFillPartialKeepsLive(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id, 1001)

	e, ok := m.OnFill(id, 4, 1002)
	require.True(t, ok)
	assert.Equal(t, StatusLive, e.Status)
	assert.Equal(t, types.Qty(6), e.LeavesQty)
	assert.Len(t, m.ActiveOrders(0, types.SideBuy), 1)
}

func TestOnFillFullTransitionsToFilledAndRemovesFromIndex(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id, 1001)

	e, ok := m.OnFill(id, 10, 1002)
	require.True(t, ok)
	assert.Equal(t, StatusFilled, e.Status)
	assert.Equal(t, types.Qty(0), e.LeavesQty)
	assert.Empty(t, m.ActiveOrders(0, types.SideBuy))
}

func TestOnFillClampsOverfill(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id, 1001)

	e, ok := m.OnFill(id, 1000, 1002)
	require.True(t, ok)
	assert.Equal(t, types.Qty(0), e.LeavesQty)
	assert.Equal(t, StatusFilled, e.Status)
}

func TestCancelLifecycle(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id, 1001)

	require.True(t, m.RequestCancel(id, 1002))
	e, _ := m.Get(id)
	assert.Equal(t, StatusPendingCancel, e.Status)
	// still indexed until confirmed
	assert.Len(t, m.ActiveOrders(0, types.SideBuy), 1)

	require.True(t, m.OnCanceled(id, 1003))
	e, _ = m.Get(id)
	assert.Equal(t, StatusCanceled, e.Status)
	assert.False(t, e.IsActive())
	assert.Empty(t, m.ActiveOrders(0, types.SideBuy))
}

func TestModifyLifecycle(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id, 1001)

	require.True(t, m.RequestModify(id, 1002))
	e, _ := m.Get(id)
	assert.Equal(t, StatusPendingModify, e.Status)

	require.True(t, m.OnModified(id, 105, 20, 1003))
	e, _ = m.Get(id)
	assert.Equal(t, StatusLive, e.Status)
	assert.Equal(t, types.Price(105), e.Price)
	assert.Equal(t, types.Qty(20), e.Qty)
	assert.Equal(t, types.Qty(20), e.LeavesQty)
}

func TestMoveOrdersReindexesLiveOrdersToTargetPrice(t *testing.T) {
	m := New(16, 1)
	buyId, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 50, 1000)
	m.OnAck(buyId, 1001)
	sellId, _ := m.CreateOrder(1, 0, types.SideSell, 110, 50, 1000)
	m.OnAck(sellId, 1001)

	m.MoveOrders(0, 101, 109, 20, 1002)

	buy, _ := m.Get(buyId)
	assert.Equal(t, types.Price(101), buy.Price)
	assert.Equal(t, types.Qty(20), buy.Qty)
	assert.Equal(t, types.Qty(20), buy.LeavesQty)

	sell, _ := m.Get(sellId)
	assert.Equal(t, types.Price(109), sell.Price)
	assert.Equal(t, types.Qty(20), sell.Qty)
}

func TestReleaseFreesSlotForReuseOnWraparound(t *testing.T) {
	m := New(1, 1)
	id1, ok := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	require.True(t, ok)
	require.True(t, m.OnReject(id1, 1001))

	// With only one slot, a second order can't be created until the
	// first's slot is freed.
	_, ok = m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1002)
	assert.False(t, ok)

	require.True(t, m.Release(id1))

	id2, ok := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1003)
	require.True(t, ok)

	e, found := m.Get(id2)
	require.True(t, found)
	assert.Equal(t, StatusPendingNew, e.Status)

	_, found = m.Get(id1)
	assert.False(t, found, "released order must no longer be resident")
}

func TestReleaseRefusesActiveOrder(t *testing.T) {
	m := New(16, 1)
	id, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id, 1001)

	assert.False(t, m.Release(id))
	e, found := m.Get(id)
	require.True(t, found)
	assert.Equal(t, StatusLive, e.Status)
}

func TestReleaseRefusesUnknownOrder(t *testing.T) {
	m := New(16, 1)
	assert.False(t, m.Release(999))
}

func TestCancelAllCancelsEveryActiveOrderOnSide(t *testing.T) {
	m := New(16, 1)
	id1, _ := m.CreateOrder(1, 0, types.SideBuy, 100, 10, 1000)
	m.OnAck(id1, 1001)
	id2, _ := m.CreateOrder(1, 0, types.SideBuy, 101, 10, 1000)
	m.OnAck(id2, 1001)

	canceled := m.CancelAll(0, types.SideBuy, 1002)
	assert.ElementsMatch(t, []types.OrderId{id1, id2}, canceled)

	e1, _ := m.Get(id1)
	assert.Equal(t, StatusPendingCancel, e1.Status)
}
