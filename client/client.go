package client

import (
	"context"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

const (
	// receiptPollInterval is the pause between receipt polls in WaitForReceipt
	receiptPollInterval = time.Second

	requestTimeout = 10 * time.Second
)

// ErrReceiptTimeout is returned when a transaction is not mined within the
// caller's deadline
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// Client is a JSON-RPC client for a single EVM node. All requests share one
// keep-alive connection pool; batched requests go out as a single JSON
// array POST.
type Client struct {
	eth *ethclient.Client
	rpc *rpc.Client

	chainID     *big.Int
	chainIDErr  error
	chainIDOnce sync.Once
}

// newTransportHTTPClient returns an HTTP client tuned for request
// pipelining against a single node
func newTransportHTTPClient() *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        300,
			MaxIdleConnsPerHost: 300,
			MaxConnsPerHost:     300,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
	}
}

// Dial connects to the node at the given URL
func Dial(url string) (*Client, error) {
	rpcClient, err := rpc.DialOptions(
		context.Background(),
		url,
		rpc.WithHTTPClient(newTransportHTTPClient()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize rpc client")
	}

	return &Client{
		eth: ethclient.NewClient(rpcClient),
		rpc: rpcClient,
	}, nil
}

// ChainID returns the node's chain ID. The value is queried once and
// cached for the lifetime of the client
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDOnce.Do(func() {
		c.chainID, c.chainIDErr = c.eth.ChainID(ctx)
	})

	return c.chainID, c.chainIDErr
}

// GasPrice returns the node's suggested gas price
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.eth.SuggestGasPrice(ctx)
}

// EstimateGas estimates the gas cost of the given call
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.eth.EstimateGas(ctx, msg)
}

// PendingNonce returns the account's next usable nonce
func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	return c.eth.PendingNonceAt(ctx, addr)
}

// Balance returns the account's latest native balance
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.eth.BalanceAt(ctx, addr, nil)
}

// SendTransaction submits a single signed transaction
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.eth.SendTransaction(ctx, tx)
}

// CallContract executes a read-only contract call at the latest block
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, nil)
}

// CodeAt returns the code deployed at the given address
func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return c.eth.CodeAt(ctx, addr, nil)
}

// TransactionReceipt fetches the receipt for the given hash, if mined
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.eth.TransactionReceipt(ctx, hash)
}

// BatchCall sends the given requests as one JSON array POST. The rpc
// client assigns each element a unique id from a monotonically increasing
// counter and matches responses back by id, so responses[i] always
// belongs to requests[i]
func (c *Client) BatchCall(ctx context.Context, batch []rpc.BatchElem) error {
	return c.rpc.BatchCallContext(ctx, batch)
}

// BlockNumber returns the latest block number
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// Block is the subset of a block used for throughput reconstruction
type Block struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
	GasUsed   hexutil.Uint64 `json:"gasUsed"`
	GasLimit  hexutil.Uint64 `json:"gasLimit"`

	// Transaction hashes only; the bodies are never needed
	Transactions []common.Hash `json:"transactions"`
}

// GetBlockByNumber fetches the block summary at the given height
func (c *Client) GetBlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	var block *Block

	if err := c.rpc.CallContext(
		ctx,
		&block,
		"eth_getBlockByNumber",
		hexutil.EncodeUint64(number),
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "unable to fetch block %d", number)
	}

	if block == nil {
		return nil, errors.Errorf("block %d not found", number)
	}

	return block, nil
}

// WaitForReceipt polls for the transaction's receipt until it is mined or
// the timeout expires
func (c *Client) WaitForReceipt(
	ctx context.Context,
	hash common.Hash,
	timeout time.Duration,
) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(receiptPollInterval)
	defer tick.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(waitCtx, hash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil {
			return nil, err
		}

		select {
		case <-waitCtx.Done():
			return nil, ErrReceiptTimeout
		case <-tick.C:
		}
	}
}
