package distributor

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/progress"
	"github.com/sig-0/pandoras-box/wallet"
	"github.com/sig-0/pandoras-box/workload"
)

// ErrInsufficientFunds is returned when the root account cannot fund a
// single sub-account (or holds no tokens to distribute)
var ErrInsufficientFunds = errors.New("insufficient distributor funds")

// fundWaitDeadline bounds the wait for each funding transaction. Funding
// is sequential and awaited to mining: correctness over speed
const fundWaitDeadline = 60 * time.Second

// Native tops up sub-account native balances from the root account so
// every returned account can sustain the full workload
type Native struct {
	cli      *client.Client
	root     *wallet.Account
	chainID  *big.Int
	logger   *zap.SugaredLogger
	observer progress.Observer
}

// NewNative creates the native fund distributor
func NewNative(
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	logger *zap.SugaredLogger,
	observer progress.Observer,
) *Native {
	return &Native{
		cli:      cli,
		root:     root,
		chainID:  chainID,
		logger:   logger.Named("distributor"),
		observer: observer,
	}
}

// Distribute funds the given sub-accounts and returns the ones able to
// participate, sorted by derivation index.
//
// Each sub-account is funded for the entire workload of total
// transactions, not total / K: the workload is then free to reassign
// transactions among accounts and tolerate idle ones without anyone
// running dry.
func (d *Native) Distribute(
	ctx context.Context,
	subAccounts []*wallet.Account,
	total int,
	desc *workload.Descriptor,
) ([]*wallet.Account, error) {
	if len(subAccounts) == 0 {
		return nil, errors.New("no sub-accounts to fund")
	}

	// R = total x (P x G + V)
	perTxCost := new(big.Int).Mul(desc.GasPrice, new(big.Int).SetUint64(desc.BaseGas))
	perTxCost.Add(perTxCost, desc.Value)

	required := new(big.Int).Mul(perTxCost, big.NewInt(int64(total)))

	// Estimate the cost of one funding transfer. The estimate carries the
	// full value R, so large top-ups cannot under-estimate
	firstTarget := subAccounts[0].Address

	fundGas, err := d.cli.EstimateGas(ctx, ethereum.CallMsg{
		From:  d.root.Address,
		To:    &firstTarget,
		Value: required,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to estimate funding transfer")
	}

	fundTxCost := new(big.Int).Mul(desc.GasPrice, new(big.Int).SetUint64(fundGas))

	rootBalance, err := d.cli.Balance(ctx, d.root.Address)
	if err != nil {
		return nil, errors.Wrap(err, "unable to fetch root balance")
	}

	var (
		ready = make([]*wallet.Account, 0, len(subAccounts))
		queue = newShortfallQueue()
	)

	for _, account := range subAccounts {
		balance, err := d.cli.Balance(ctx, account.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to fetch balance of %s", account.Address)
		}

		if balance.Cmp(required) >= 0 {
			ready = append(ready, account)

			continue
		}

		queue.push(&fundingEntry{
			Account:   account,
			Shortfall: new(big.Int).Sub(required, balance),
		})
	}

	if queue.Len() == 0 {
		d.logger.Infow("sub-accounts fully funded",
			"accounts", len(ready),
			"required", required.String(),
		)

		sortByIndex(ready)

		return ready, nil
	}

	// Greedily commit the smallest shortfalls while the root can still
	// afford another funding transaction
	fundable := make([]*fundingEntry, 0, queue.Len())

	for queue.Len() > 0 && rootBalance.Cmp(fundTxCost) > 0 {
		entry := queue.pop()

		rootBalance.Sub(rootBalance, entry.Shortfall)
		fundable = append(fundable, entry)
	}

	if len(fundable) == 0 {
		return nil, errors.Wrap(ErrInsufficientFunds, "root cannot fund any sub-account")
	}

	if queue.Len() > 0 {
		d.logger.Warnw("root balance exhausted before all sub-accounts were funded",
			"funded", len(fundable),
			"skipped", queue.Len(),
		)
	}

	if err := d.fund(ctx, fundable, fundGas, desc.GasPrice); err != nil {
		return nil, err
	}

	for _, entry := range fundable {
		ready = append(ready, entry.Account)
	}

	sortByIndex(ready)

	return ready, nil
}

// fund sends one awaited transfer per entry
func (d *Native) fund(
	ctx context.Context,
	entries []*fundingEntry,
	gasLimit uint64,
	gasPrice *big.Int,
) error {
	d.observer.StageStarted("Funding sub-accounts", len(entries))
	defer d.observer.StageDone()

	for _, entry := range entries {
		signedTx, err := types.SignTx(
			types.NewTransaction(
				d.root.UseNonce(),
				entry.Account.Address,
				entry.Shortfall,
				gasLimit,
				gasPrice,
				nil,
			),
			types.NewEIP155Signer(d.chainID),
			d.root.PrivateKey(),
		)
		if err != nil {
			return errors.Wrap(err, "unable to sign funding transfer")
		}

		if err := d.cli.SendTransaction(ctx, signedTx); err != nil {
			return errors.Wrapf(err, "unable to fund %s", entry.Account.Address)
		}

		receipt, err := d.cli.WaitForReceipt(ctx, signedTx.Hash(), fundWaitDeadline)
		if err != nil {
			return errors.Wrapf(err, "funding of %s not mined", entry.Account.Address)
		}

		if receipt.Status == types.ReceiptStatusFailed {
			return errors.Errorf("funding transfer %s reverted", signedTx.Hash())
		}

		d.logger.Debugw("sub-account funded",
			"account", entry.Account.Address.Hex(),
			"amount", entry.Shortfall.String(),
		)

		d.observer.ItemCompleted()
	}

	return nil
}

// sortByIndex orders accounts by derivation index
func sortByIndex(accounts []*wallet.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Index < accounts[j].Index
	})
}
