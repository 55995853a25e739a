package distributor

import (
	"container/heap"
	"math/big"

	"github.com/sig-0/pandoras-box/wallet"
)

// fundingEntry is a sub-account that cannot sustain the workload yet
type fundingEntry struct {
	Account   *wallet.Account
	Shortfall *big.Int
}

// shortfallQueue is a min-heap of funding entries keyed by shortfall.
// Funding the smallest shortfalls first maximizes the number of
// sub-accounts that can participate under a limited root budget.
type shortfallQueue []*fundingEntry

func (q shortfallQueue) Len() int { return len(q) }

func (q shortfallQueue) Less(i, j int) bool {
	return q[i].Shortfall.Cmp(q[j].Shortfall) < 0
}

func (q shortfallQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *shortfallQueue) Push(x any) {
	*q = append(*q, x.(*fundingEntry))
}

func (q *shortfallQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return entry
}

// newShortfallQueue initializes an empty heap
func newShortfallQueue() *shortfallQueue {
	q := make(shortfallQueue, 0)
	heap.Init(&q)

	return &q
}

func (q *shortfallQueue) push(entry *fundingEntry) {
	heap.Push(q, entry)
}

func (q *shortfallQueue) pop() *fundingEntry {
	return heap.Pop(q).(*fundingEntry)
}

// peekShortfall returns the smallest queued shortfall
func (q *shortfallQueue) peekShortfall() *big.Int {
	return (*q)[0].Shortfall
}
