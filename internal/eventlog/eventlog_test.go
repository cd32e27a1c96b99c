package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/hft-trade-core/internal/types"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.log")
	l, err := Open(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAssignsIncreasingSequenceNumbers(t *testing.T) {
	l := openTestLog(t)

	seq1, err := l.Append(Event{Kind: KindFill, Ticker: 1, OrderId: 10})
	require.NoError(t, err)
	seq2, err := l.Append(Event{Kind: KindFill, Ticker: 1, OrderId: 11})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), seq1)
	assert.Equal(t, uint64(2), seq2)
	assert.Equal(t, uint64(2), l.LastSequence())
}

func TestReplayReturnsEventsInOrder(t *testing.T) {
	l := openTestLog(t)

	l.Append(Event{Kind: KindFill, OrderId: 1, Qty: 10})
	l.Append(Event{Kind: KindOrderCanceled, OrderId: 2})
	l.Append(Event{Kind: KindOrderRejected, OrderId: 3, Reason: "risk"})

	var replayed []Event
	err := l.Replay(func(ev Event) error {
		replayed = append(replayed, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, replayed, 3)
	assert.Equal(t, types.OrderId(1), replayed[0].OrderId)
	assert.Equal(t, KindOrderCanceled, replayed[1].Kind)
	assert.Equal(t, "risk", replayed[2].Reason)
}

func TestReplayOnMissingFileIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.log")
	l := &Log{path: path}

	called := false
	err := l.Replay(func(Event) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestReopenRecoversSequenceNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	l1, err := Open(Config{Path: path})
	require.NoError(t, err)
	l1.Append(Event{Kind: KindFill, OrderId: 1})
	l1.Append(Event{Kind: KindFill, OrderId: 2})
	require.NoError(t, l1.Close())

	l2, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer l2.Close()

	assert.Equal(t, uint64(2), l2.LastSequence())

	seq, err := l2.Append(Event{Kind: KindFill, OrderId: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
}
