package collector

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/mockrpc"
	"github.com/sig-0/pandoras-box/progress"
)

// receiptNode stubs a drained mempool and a configurable receipt set
type receiptNode struct {
	srv *mockrpc.Server

	mu       sync.Mutex
	receipts map[common.Hash]map[string]any
	deferred map[common.Hash]int
}

func newReceiptNode(t *testing.T) *receiptNode {
	t.Helper()

	node := &receiptNode{
		srv:      mockrpc.NewServer(),
		receipts: make(map[common.Hash]map[string]any),
		deferred: make(map[common.Hash]int),
	}

	t.Cleanup(node.srv.Close)

	node.srv.Handle("txpool_status", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return map[string]any{"pending": "0x0", "queued": "0x0"}, nil
	})

	node.srv.Handle("eth_getTransactionReceipt", func(params []json.RawMessage) (any, *mockrpc.Error) {
		var hash common.Hash
		if err := json.Unmarshal(params[0], &hash); err != nil {
			return nil, &mockrpc.Error{Code: -32602, Message: "bad hash"}
		}

		node.mu.Lock()
		defer node.mu.Unlock()

		if node.deferred[hash] > 0 {
			node.deferred[hash]--

			return nil, nil
		}

		receipt, ok := node.receipts[hash]
		if !ok {
			return nil, nil
		}

		return receipt, nil
	})

	return node
}

// include registers a successful receipt for the hash
func (n *receiptNode) include(hash common.Hash, block uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.receipts[hash] = mockrpc.ReceiptResult(hash, block, 1)
}

// revert registers a failed receipt for the hash
func (n *receiptNode) revert(hash common.Hash, block uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.receipts[hash] = mockrpc.ReceiptResult(hash, block, 0)
}

// deferLookups makes the first count lookups of the hash miss
func (n *receiptNode) deferLookups(hash common.Hash, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.deferred[hash] = count
}

func newTestCollector(t *testing.T, node *receiptNode, batchSize int) *Collector {
	t.Helper()

	cli, err := client.Dial(node.srv.URL())
	require.NoError(t, err)

	return New(cli, batchSize, zap.NewNop().Sugar(), progress.NewNoop())
}

func testHashes(count int) []common.Hash {
	hashes := make([]common.Hash, count)
	for i := range hashes {
		hashes[i] = common.BytesToHash([]byte{byte(i + 1)})
	}

	return hashes
}

func TestCollector_CollectAll(t *testing.T) {
	t.Parallel()

	node := newReceiptNode(t)
	hashes := testHashes(6)

	for i, hash := range hashes {
		node.include(hash, uint64(10+i/3))
	}

	result, err := newTestCollector(t, node, 2).
		Collect(context.Background(), hashes)
	require.NoError(t, err)

	// Every submitted hash resolved, none errored
	require.Len(t, result.TxStats, len(hashes))
	assert.Empty(t, result.Errors)

	resolved := make(map[common.Hash]uint64)
	for _, stat := range result.TxStats {
		resolved[stat.Hash] = stat.Block
	}

	for i, hash := range hashes {
		block, ok := resolved[hash]

		require.True(t, ok)
		assert.Equal(t, uint64(10+i/3), block)
	}
}

func TestCollector_IndividualFallback(t *testing.T) {
	t.Parallel()

	node := newReceiptNode(t)
	hashes := testHashes(4)

	for _, hash := range hashes {
		node.include(hash, 10)
	}

	// The straggler misses the single batched sweep and resolves during
	// the per-hash fallback
	node.deferLookups(hashes[2], 1)

	result, err := newTestCollector(t, node, 4).
		Collect(context.Background(), hashes)
	require.NoError(t, err)

	assert.Len(t, result.TxStats, 4)
	assert.Empty(t, result.Errors)
}

func TestCollector_RevertIsFatal(t *testing.T) {
	t.Parallel()

	node := newReceiptNode(t)
	hashes := testHashes(3)

	node.include(hashes[0], 10)
	node.revert(hashes[1], 10)
	node.include(hashes[2], 10)

	result, err := newTestCollector(t, node, 10).
		Collect(context.Background(), hashes)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrExecutionFailed)
}

func TestCollector_NoHashes(t *testing.T) {
	t.Parallel()

	node := newReceiptNode(t)

	result, err := newTestCollector(t, node, 10).
		Collect(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.TxStats)
	assert.Empty(t, result.Errors)

	// No network traffic at all for an empty run
	assert.Zero(t, node.srv.Calls("txpool_status"))
	assert.Zero(t, node.srv.Calls("eth_getTransactionReceipt"))
}
