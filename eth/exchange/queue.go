package exchange

import (
	"time"

	"github.com/gladcow/silkworm/core/types"
)

// Batch is the result-queue element: a downloaded run of blocks,
// ownership of which transfers to the driver on pop.
type Batch []*types.Block

// ResultQueue is the FIFO multi-producer/single-consumer channel of
// Batch values the block exchange feeds the driver through. It is
// unbounded by contract; this implementation caps it at construction
// time, which the block-exchange contract explicitly allows.
type ResultQueue struct {
	ch chan Batch
}

// NewResultQueue creates a queue with the given capacity. A push that
// would exceed capacity is dropped rather than blocking the
// producer — the exchange's download workers must never stall behind
// a slow driver.
func NewResultQueue(capacity int) *ResultQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &ResultQueue{ch: make(chan Batch, capacity)}
}

// Push enqueues a batch, returning false if the queue was full and
// the batch was dropped.
func (q *ResultQueue) Push(b Batch) bool {
	select {
	case q.ch <- b:
		return true
	default:
		return false
	}
}

// TimedWaitAndPop blocks for up to d waiting for a batch. It returns
// (nil, false) on timeout, which the driver's forward loop treats as
// "no item" rather than an error.
func (q *ResultQueue) TimedWaitAndPop(d time.Duration) (Batch, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case b, ok := <-q.ch:
		if !ok {
			return nil, false
		}
		return b, true
	case <-timer.C:
		return nil, false
	}
}

// Close shuts the queue down; any blocked TimedWaitAndPop returns
// (nil, false). Safe to call once the producing side has stopped.
func (q *ResultQueue) Close() {
	close(q.ch)
}
