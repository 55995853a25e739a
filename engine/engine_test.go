package engine

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

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

func testAccounts(t *testing.T, count int) (*wallet.Account, []*wallet.Account) {
	t.Helper()

	w, err := wallet.NewWallet(testMnemonic)
	require.NoError(t, err)

	root, err := w.Account(0)
	require.NoError(t, err)

	accounts := make([]*wallet.Account, 0, count)

	for i := 1; i <= count; i++ {
		account, err := w.Account(uint32(i))
		require.NoError(t, err)

		accounts = append(accounts, account)
	}

	return root, accounts
}

func TestEngine_Prepare(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	const startNonce = uint64(5)

	srv.Handle("eth_getTransactionCount", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return hexutil.EncodeUint64(startNonce), nil
	})

	cli, err := client.Dial(srv.URL())
	require.NoError(t, err)

	root, accounts := testAccounts(t, 3)

	rt := workload.NewEOARuntime(cli, root, testChainID, zap.NewNop().Sugar())
	rt.Descriptor().BaseGas = 21_000
	rt.Descriptor().GasPrice = big.NewInt(50)

	const total = 7

	rawTxs, err := New(cli, rt, testChainID, zap.NewNop().Sugar(), progress.NewNoop()).
		Prepare(context.Background(), accounts, total)
	require.NoError(t, err)
	require.Len(t, rawTxs, total)

	// One nonce fetch per account
	assert.Equal(t, len(accounts), srv.Calls("eth_getTransactionCount"))

	signer := types.NewEIP155Signer(testChainID)
	perSender := make(map[uint32]uint64)

	for i, raw := range rawTxs {
		decoded := new(types.Transaction)
		require.NoError(t, decoded.UnmarshalBinary(hexutil.MustDecode(raw)))

		// Signature recovers the round-robin sender
		expected := accounts[i%len(accounts)]

		sender, err := types.Sender(signer, decoded)
		require.NoError(t, err)
		assert.Equal(t, expected.Address, sender)

		// Nonces run consecutively from the fetched starting point
		assert.Equal(t, startNonce+perSender[expected.Index], decoded.Nonce())
		perSender[expected.Index]++
	}
}

func TestEngine_PrepareNonceFetchFails(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	srv.Handle("eth_getTransactionCount", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return nil, &mockrpc.Error{Code: -32000, Message: "boom"}
	})

	cli, err := client.Dial(srv.URL())
	require.NoError(t, err)

	root, accounts := testAccounts(t, 2)

	rt := workload.NewEOARuntime(cli, root, testChainID, zap.NewNop().Sugar())
	rt.Descriptor().BaseGas = 21_000
	rt.Descriptor().GasPrice = big.NewInt(50)

	rawTxs, err := New(cli, rt, testChainID, zap.NewNop().Sugar(), progress.NewNoop()).
		Prepare(context.Background(), accounts, 4)

	assert.Nil(t, rawTxs)
	assert.Error(t, err)
}
