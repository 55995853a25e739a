package workload

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/wallet"
)

// Mode selects the transaction shape of a stress run
type Mode string

const (
	ModeEOA    Mode = "EOA"
	ModeERC20  Mode = "ERC20"
	ModeERC721 Mode = "ERC721"
)

// ParseMode validates a user-supplied mode string
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeEOA, ModeERC20, ModeERC721:
		return Mode(raw), nil
	default:
		return "", errors.Errorf("unknown workload mode %q", raw)
	}
}

var (
	// ErrNotInitialized is returned when a contract-backed method is
	// invoked before Initialize has deployed the contract
	ErrNotInitialized = errors.New("runtime not initialized")
)

var (
	_ Runtime = (*EOARuntime)(nil)
	_ Runtime = (*ERC20Runtime)(nil)
	_ Runtime = (*ERC721Runtime)(nil)
)

// Tx pairs an unsigned transaction with the account that signs it
type Tx struct {
	Sender *wallet.Account
	Tx     *types.Transaction
}

// Descriptor carries the cost model of a runtime. BaseGas and GasPrice are
// set by EstimateBaseTx / GetGasPrice before any transaction is
// constructed, and are immutable afterwards.
type Descriptor struct {
	Mode Mode

	// BaseGas is the estimated gas limit of a single workload transaction
	BaseGas uint64

	// GasPrice is the node-suggested gas price
	GasPrice *big.Int

	// Value is the per-transaction intrinsic value. Only EOA transfers
	// move native value; token modes keep it at zero
	Value *big.Int
}

// Runtime constructs the transactions of a single workload mode
type Runtime interface {
	// Initialize performs one-time setup, deploying contracts for the
	// token modes. EOA runs have nothing to set up
	Initialize(ctx context.Context) error

	// EstimateBaseTx populates the descriptor's base gas limit
	EstimateBaseTx(ctx context.Context) error

	// GetGasPrice populates the descriptor's gas price
	GetGasPrice(ctx context.Context) error

	// GetValue returns the per-transaction intrinsic value
	GetValue() *big.Int

	// ConstructTransactions builds total unsigned transactions across the
	// given accounts, consuming account nonces as it goes
	ConstructTransactions(accounts []*wallet.Account, total int) ([]*Tx, error)

	// GetStartMessage returns the banner printed before submission
	GetStartMessage() string

	// Descriptor exposes the runtime's cost model
	Descriptor() *Descriptor
}

// New creates the runtime for the given mode. The root account pays for
// any contract deployment
func New(
	mode Mode,
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	logger *zap.SugaredLogger,
) (Runtime, error) {
	switch mode {
	case ModeEOA:
		return NewEOARuntime(cli, root, chainID, logger), nil
	case ModeERC20:
		return NewERC20Runtime(cli, root, chainID, logger), nil
	case ModeERC721:
		return NewERC721Runtime(cli, root, chainID, logger), nil
	default:
		return nil, errors.Errorf("unknown workload mode %q", mode)
	}
}

// fetchGasPrice fills the descriptor's gas price from the node
func fetchGasPrice(ctx context.Context, cli *client.Client, desc *Descriptor) error {
	gasPrice, err := cli.GasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to fetch gas price")
	}

	desc.GasPrice = gasPrice

	return nil
}
