package workload

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/wallet"
)

const (
	tokenName   = "Pandora Token"
	tokenSymbol = "PAND"
)

// tokenSupply is minted to the deploying root account
var tokenSupply = big.NewInt(500_000_000)

// tokenTransferAmount is moved by every workload transfer
var tokenTransferAmount = big.NewInt(1)

// ERC20Runtime cycles single-token transfers between the sub-accounts on a
// freshly deployed fungible token
type ERC20Runtime struct {
	cli     *client.Client
	root    *wallet.Account
	chainID *big.Int
	logger  *zap.SugaredLogger

	token *Token
	desc  Descriptor
}

// NewERC20Runtime creates the token-transfer workload
func NewERC20Runtime(
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	logger *zap.SugaredLogger,
) *ERC20Runtime {
	return &ERC20Runtime{
		cli:     cli,
		root:    root,
		chainID: chainID,
		logger:  logger.Named("erc20"),
		desc: Descriptor{
			Mode:  ModeERC20,
			Value: big.NewInt(0),
		},
	}
}

// Initialize deploys the token contract, minting the supply to root
func (r *ERC20Runtime) Initialize(ctx context.Context) error {
	parsed, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return errors.Wrap(err, "unable to parse token ABI")
	}

	args, err := parsed.Pack("", tokenSupply, tokenName, tokenSymbol)
	if err != nil {
		return errors.Wrap(err, "unable to pack token constructor")
	}

	addr, err := deployContract(
		ctx,
		r.cli,
		r.root,
		r.chainID,
		append(common.FromHex(TokenBytecode), args...),
	)
	if err != nil {
		return errors.Wrap(err, "unable to deploy token")
	}

	if r.token, err = NewBoundToken(r.cli, addr, tokenSymbol); err != nil {
		return err
	}

	r.logger.Infow("token deployed",
		"address", addr.Hex(),
		"symbol", tokenSymbol,
		"supply", tokenSupply.String(),
	)

	return nil
}

// Token returns the deployed token handle
func (r *ERC20Runtime) Token() (*Token, error) {
	if r.token == nil {
		return nil, ErrNotInitialized
	}

	return r.token, nil
}

// Supply returns the total supply minted to root at deploy time
func (r *ERC20Runtime) Supply() *big.Int {
	return tokenSupply
}

// GetGasPrice queries and pins the node's suggested gas price
func (r *ERC20Runtime) GetGasPrice(ctx context.Context) error {
	return fetchGasPrice(ctx, r.cli, &r.desc)
}

// EstimateBaseTx estimates a single token transfer
func (r *ERC20Runtime) EstimateBaseTx(ctx context.Context) error {
	if r.token == nil {
		return ErrNotInitialized
	}

	input, err := r.token.PackTransfer(r.root.Address, tokenTransferAmount)
	if err != nil {
		return err
	}

	gas, err := r.cli.EstimateGas(ctx, ethereum.CallMsg{
		From: r.root.Address,
		To:   &r.token.Address,
		Data: input,
	})
	if err != nil {
		return errors.Wrap(err, "unable to estimate token transfer")
	}

	r.desc.BaseGas = gas

	return nil
}

// GetValue returns zero: token transfers move no native value
func (r *ERC20Runtime) GetValue() *big.Int {
	return r.desc.Value
}

// ConstructTransactions builds total token transfers, round-robin over the
// ready accounts. Gas limit and price are scaled 1.5x over the estimates,
// since estimates against a busy node routinely come in low
func (r *ERC20Runtime) ConstructTransactions(
	accounts []*wallet.Account,
	total int,
) ([]*Tx, error) {
	if r.token == nil {
		return nil, ErrNotInitialized
	}

	if len(accounts) == 0 {
		return nil, errors.New("no accounts to construct with")
	}

	var (
		gasLimit = r.desc.BaseGas * 3 / 2
		gasPrice = new(big.Int).Div(
			new(big.Int).Mul(r.desc.GasPrice, big.NewInt(3)),
			big.NewInt(2),
		)
	)

	txs := make([]*Tx, 0, total)

	for i := 0; i < total; i++ {
		var (
			sender   = accounts[i%len(accounts)]
			receiver = accounts[(i+1)%len(accounts)]
		)

		input, err := r.token.PackTransfer(receiver.Address, tokenTransferAmount)
		if err != nil {
			return nil, err
		}

		txs = append(txs, &Tx{
			Sender: sender,
			Tx: types.NewTransaction(
				sender.UseNonce(),
				r.token.Address,
				nil,
				gasLimit,
				gasPrice,
				input,
			),
		})
	}

	return txs, nil
}

// GetStartMessage returns the run banner
func (r *ERC20Runtime) GetStartMessage() string {
	return color.New(color.FgGreen, color.Bold).Sprintf(
		"🚀 ERC-20 transfer stress run (%s)", tokenSymbol,
	)
}

// Descriptor exposes the runtime cost model
func (r *ERC20Runtime) Descriptor() *Descriptor {
	return &r.desc
}
