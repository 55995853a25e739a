package client

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/pandoras-box/mockrpc"
)

func dialMock(t *testing.T, srv *mockrpc.Server) *Client {
	t.Helper()

	c, err := Dial(srv.URL())
	require.NoError(t, err)

	return c
}

func TestClient_ChainIDCached(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	srv.Handle("eth_chainId", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return "0x539", nil
	})

	c := dialMock(t, srv)

	for i := 0; i < 3; i++ {
		chainID, err := c.ChainID(context.Background())
		require.NoError(t, err)

		assert.Equal(t, uint64(1337), chainID.Uint64())
	}

	// Only the first call hits the node
	assert.Equal(t, 1, srv.Calls("eth_chainId"))
}

func TestClient_GetBlockByNumber(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	txs := []common.Hash{
		common.HexToHash("0x01"),
		common.HexToHash("0x02"),
	}

	srv.Handle("eth_getBlockByNumber", func(params []json.RawMessage) (any, *mockrpc.Error) {
		var number string
		require.NoError(t, json.Unmarshal(params[0], &number))
		assert.Equal(t, "0x10", number)

		return mockrpc.BlockResult(16, 1700000000, 15_000_000, 30_000_000, txs), nil
	})

	c := dialMock(t, srv)

	block, err := c.GetBlockByNumber(context.Background(), 16)
	require.NoError(t, err)

	assert.Equal(t, uint64(16), uint64(block.Number))
	assert.Equal(t, uint64(1700000000), uint64(block.Timestamp))
	assert.Equal(t, uint64(15_000_000), uint64(block.GasUsed))
	assert.Equal(t, uint64(30_000_000), uint64(block.GasLimit))
	assert.Equal(t, txs, block.Transactions)
}

func TestClient_GetBlockByNumberMissing(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	srv.Handle("eth_getBlockByNumber", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return nil, nil
	})

	c := dialMock(t, srv)

	block, err := c.GetBlockByNumber(context.Background(), 42)

	assert.Nil(t, block)
	assert.Error(t, err)
}

func TestClient_BatchCallOrdering(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	// Echo a hash derived from the raw payload, so responses are
	// attributable to their requests
	srv.Handle("eth_sendRawTransaction", func(params []json.RawMessage) (any, *mockrpc.Error) {
		var raw string
		if err := json.Unmarshal(params[0], &raw); err != nil {
			return nil, &mockrpc.Error{Code: -32602, Message: "bad params"}
		}

		return common.BytesToHash([]byte(raw)).Hex(), nil
	})

	c := dialMock(t, srv)

	var (
		batch  = make([]rpc.BatchElem, 10)
		hashes = make([]string, 10)
	)

	for i := range batch {
		batch[i] = rpc.BatchElem{
			Method: "eth_sendRawTransaction",
			Args:   []any{fmt.Sprintf("raw-%d", i)},
			Result: &hashes[i],
		}
	}

	require.NoError(t, c.BatchCall(context.Background(), batch))

	// Response k belongs to request k
	for i, hash := range hashes {
		expected := common.BytesToHash([]byte(fmt.Sprintf("raw-%d", i))).Hex()

		assert.Equal(t, expected, hash)
		assert.NoError(t, batch[i].Error)
	}
}

func TestClient_WaitForReceipt(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	var (
		hash  = common.HexToHash("0xabcd")
		calls = 0
	)

	srv.Handle("eth_getTransactionReceipt", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		calls++

		// Not mined on the first poll
		if calls == 1 {
			return nil, nil
		}

		return mockrpc.ReceiptResult(hash, 7, 1), nil
	})

	c := dialMock(t, srv)

	receipt, err := c.WaitForReceipt(context.Background(), hash, 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), receipt.BlockNumber.Uint64())
	assert.Equal(t, uint64(1), receipt.Status)
}

func TestClient_WaitForReceiptTimeout(t *testing.T) {
	t.Parallel()

	srv := mockrpc.NewServer()
	defer srv.Close()

	srv.Handle("eth_getTransactionReceipt", func(_ []json.RawMessage) (any, *mockrpc.Error) {
		return nil, nil
	})

	c := dialMock(t, srv)

	receipt, err := c.WaitForReceipt(
		context.Background(),
		common.HexToHash("0xabcd"),
		1500*time.Millisecond,
	)

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrReceiptTimeout)
}
