package distributor

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/mockrpc"
	"github.com/sig-0/pandoras-box/progress"
	"github.com/sig-0/pandoras-box/wallet"
	"github.com/sig-0/pandoras-box/workload"
)

const testMnemonic = "test test test test test test test test test test test junk"

var testChainID = big.NewInt(1337)

// fundingNode stubs the RPC surface the native distributor touches and
// records every transfer it mines
type fundingNode struct {
	srv *mockrpc.Server

	mu       sync.Mutex
	balances map[common.Address]*big.Int
	sent     map[common.Address]*big.Int
}

func newFundingNode(t *testing.T, balances map[common.Address]*big.Int) *fundingNode {
	t.Helper()

	node := &fundingNode{
		srv:      mockrpc.NewServer(),
		balances: balances,
		sent:     make(map[common.Address]*big.Int),
	}

	t.Cleanup(node.srv.Close)

	node.srv.Handle("eth_estimateGas", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return "0x5208", nil
	})

	node.srv.Handle("eth_getBalance", func(params []json.RawMessage) (any, *mockrpc.Error) {
		var addr common.Address
		if err := json.Unmarshal(params[0], &addr); err != nil {
			return nil, &mockrpc.Error{Code: -32602, Message: "bad address"}
		}

		node.mu.Lock()
		defer node.mu.Unlock()

		balance, ok := node.balances[addr]
		if !ok {
			balance = big.NewInt(0)
		}

		return hexutil.EncodeBig(balance), nil
	})

	node.srv.Handle("eth_sendRawTransaction", func(params []json.RawMessage) (any, *mockrpc.Error) {
		var raw string
		if err := json.Unmarshal(params[0], &raw); err != nil {
			return nil, &mockrpc.Error{Code: -32602, Message: "bad raw tx"}
		}

		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(hexutil.MustDecode(raw)); err != nil {
			return nil, &mockrpc.Error{Code: -32000, Message: "undecodable tx"}
		}

		node.mu.Lock()
		node.sent[*tx.To()] = tx.Value()
		node.mu.Unlock()

		return tx.Hash().Hex(), nil
	})

	node.srv.Handle("eth_getTransactionReceipt", func(params []json.RawMessage) (any, *mockrpc.Error) {
		var hash common.Hash
		if err := json.Unmarshal(params[0], &hash); err != nil {
			return nil, &mockrpc.Error{Code: -32602, Message: "bad hash"}
		}

		return mockrpc.ReceiptResult(hash, 1, 1), nil
	})

	return node
}

func (n *fundingNode) sentTo(addr common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.sent[addr]
}

func (n *fundingNode) totalSent() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sent)
}

// testAccounts derives the root and count sub-accounts
func testAccounts(t *testing.T, count int) (*wallet.Account, []*wallet.Account) {
	t.Helper()

	w, err := wallet.NewWallet(testMnemonic)
	require.NoError(t, err)

	root, err := w.Account(0)
	require.NoError(t, err)

	subAccounts := make([]*wallet.Account, 0, count)

	for i := 1; i <= count; i++ {
		account, err := w.Account(uint32(i))
		require.NoError(t, err)

		subAccounts = append(subAccounts, account)
	}

	return root, subAccounts
}

// testDescriptor yields R = 10 x (10 x 1000 + 0) = 100000 wei per account
func testDescriptor() *workload.Descriptor {
	return &workload.Descriptor{
		Mode:     workload.ModeEOA,
		BaseGas:  1000,
		GasPrice: big.NewInt(10),
		Value:    big.NewInt(0),
	}
}

func newNative(t *testing.T, node *fundingNode, root *wallet.Account) *Native {
	t.Helper()

	cli, err := client.Dial(node.srv.URL())
	require.NoError(t, err)

	return NewNative(cli, root, testChainID, zap.NewNop().Sugar(), progress.NewNoop())
}

func TestNative_FullyFunded(t *testing.T) {
	t.Parallel()

	root, subAccounts := testAccounts(t, 3)

	// Everyone already holds R
	balances := map[common.Address]*big.Int{
		root.Address: big.NewInt(0),
	}
	for _, account := range subAccounts {
		balances[account.Address] = big.NewInt(100_000)
	}

	node := newFundingNode(t, balances)
	root.SetNonce(0)

	ready, err := newNative(t, node, root).
		Distribute(context.Background(), subAccounts, 10, testDescriptor())
	require.NoError(t, err)

	assert.Len(t, ready, 3)
	assert.Zero(t, node.totalSent())

	// Sorted by derivation index
	for i := 1; i < len(ready); i++ {
		assert.Less(t, ready[i-1].Index, ready[i].Index)
	}
}

func TestNative_PartialFunding(t *testing.T) {
	t.Parallel()

	root, subAccounts := testAccounts(t, 3)

	// Shortfalls: 10k, 50k, 100k. The funding transfer costs
	// D = 21000 x 10 = 210000; the root affords the two smallest
	balances := map[common.Address]*big.Int{
		root.Address:           big.NewInt(220_001),
		subAccounts[0].Address: big.NewInt(0),      // shortfall 100k
		subAccounts[1].Address: big.NewInt(90_000), // shortfall 10k
		subAccounts[2].Address: big.NewInt(50_000), // shortfall 50k
	}

	node := newFundingNode(t, balances)
	root.SetNonce(0)

	ready, err := newNative(t, node, root).
		Distribute(context.Background(), subAccounts, 10, testDescriptor())
	require.NoError(t, err)

	// The two smallest shortfalls won
	require.Len(t, ready, 2)
	assert.Equal(t, subAccounts[1].Index, ready[0].Index)
	assert.Equal(t, subAccounts[2].Index, ready[1].Index)

	// Transfers carried exactly the shortfall
	assert.Zero(t, node.sentTo(subAccounts[1].Address).Cmp(big.NewInt(10_000)))
	assert.Zero(t, node.sentTo(subAccounts[2].Address).Cmp(big.NewInt(50_000)))
	assert.Nil(t, node.sentTo(subAccounts[0].Address))
}

func TestNative_InsufficientFunds(t *testing.T) {
	t.Parallel()

	root, subAccounts := testAccounts(t, 3)

	// Broke root, broke sub-accounts
	node := newFundingNode(t, map[common.Address]*big.Int{
		root.Address: big.NewInt(0),
	})
	root.SetNonce(0)

	ready, err := newNative(t, node, root).
		Distribute(context.Background(), subAccounts, 10, testDescriptor())

	assert.Nil(t, ready)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Zero(t, node.totalSent())
}
