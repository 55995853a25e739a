package workload

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/wallet"
)

// eoaTransferValue is the intrinsic value moved by every EOA transfer,
// 10^-4 native units
var eoaTransferValue = big.NewInt(params.Ether / 10000)

// EOARuntime cycles plain value transfers between the sub-accounts
type EOARuntime struct {
	cli     *client.Client
	root    *wallet.Account
	chainID *big.Int
	logger  *zap.SugaredLogger

	desc Descriptor
}

// NewEOARuntime creates the native-transfer workload
func NewEOARuntime(
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	logger *zap.SugaredLogger,
) *EOARuntime {
	return &EOARuntime{
		cli:     cli,
		root:    root,
		chainID: chainID,
		logger:  logger.Named("eoa"),
		desc: Descriptor{
			Mode:  ModeEOA,
			Value: eoaTransferValue,
		},
	}
}

// Initialize is a no-op: value transfers need no contract
func (r *EOARuntime) Initialize(_ context.Context) error {
	return nil
}

// GetGasPrice queries and pins the node's suggested gas price
func (r *EOARuntime) GetGasPrice(ctx context.Context) error {
	return fetchGasPrice(ctx, r.cli, &r.desc)
}

// EstimateBaseTx estimates a single native transfer
func (r *EOARuntime) EstimateBaseTx(ctx context.Context) error {
	to := r.root.Address

	gas, err := r.cli.EstimateGas(ctx, ethereum.CallMsg{
		From:  r.root.Address,
		To:    &to,
		Value: r.desc.Value,
	})
	if err != nil {
		return errors.Wrap(err, "unable to estimate base transfer")
	}

	r.desc.BaseGas = gas

	return nil
}

// GetValue returns the per-transfer native value
func (r *EOARuntime) GetValue() *big.Int {
	return r.desc.Value
}

// ConstructTransactions builds total transfers, round-robin over the ready
// accounts. Transaction i is sent by accounts[i % K] to accounts[(i+1) % K];
// sender nonces advance synchronously during construction
func (r *EOARuntime) ConstructTransactions(
	accounts []*wallet.Account,
	total int,
) ([]*Tx, error) {
	if len(accounts) == 0 {
		return nil, errors.New("no accounts to construct with")
	}

	txs := make([]*Tx, 0, total)

	for i := 0; i < total; i++ {
		var (
			sender   = accounts[i%len(accounts)]
			receiver = accounts[(i+1)%len(accounts)]
		)

		txs = append(txs, &Tx{
			Sender: sender,
			Tx: types.NewTransaction(
				sender.UseNonce(),
				receiver.Address,
				r.desc.Value,
				r.desc.BaseGas,
				r.desc.GasPrice,
				nil,
			),
		})
	}

	return txs, nil
}

// GetStartMessage returns the run banner
func (r *EOARuntime) GetStartMessage() string {
	return color.New(color.FgGreen, color.Bold).Sprint("🚀 EOA value transfer stress run")
}

// Descriptor exposes the runtime cost model
func (r *EOARuntime) Descriptor() *Descriptor {
	return &r.desc
}
