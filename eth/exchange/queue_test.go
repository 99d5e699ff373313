package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gladcow/silkworm/core/types"
)

func TestResultQueuePushAndPopPreservesOrder(t *testing.T) {
	q := NewResultQueue(4)

	first := Batch{{Header: &types.BlockHeader{}}}
	second := Batch{{Header: &types.BlockHeader{}}, {Header: &types.BlockHeader{}}}

	require.True(t, q.Push(first))
	require.True(t, q.Push(second))

	got, ok := q.TimedWaitAndPop(time.Second)
	require.True(t, ok)
	require.Len(t, got, 1)

	got, ok = q.TimedWaitAndPop(time.Second)
	require.True(t, ok)
	require.Len(t, got, 2)
}

func TestResultQueuePushDropsWhenFull(t *testing.T) {
	q := NewResultQueue(1)

	require.True(t, q.Push(Batch{{}}))
	require.False(t, q.Push(Batch{{}}), "a full queue must drop rather than block the producer")
}

func TestResultQueueTimedWaitAndPopTimesOut(t *testing.T) {
	q := NewResultQueue(1)

	start := time.Now()
	_, ok := q.TimedWaitAndPop(20 * time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestResultQueueCloseUnblocksWaiters(t *testing.T) {
	q := NewResultQueue(1)

	done := make(chan struct{})
	go func() {
		_, ok := q.TimedWaitAndPop(time.Second)
		require.False(t, ok)
		close(done)
	}()

	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TimedWaitAndPop did not unblock after Close")
	}
}
