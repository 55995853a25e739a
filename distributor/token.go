package distributor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/progress"
	"github.com/sig-0/pandoras-box/wallet"
	"github.com/sig-0/pandoras-box/workload"
)

// Token distributes ERC-20 balances from the root (the supplier holding
// the minted supply) to the natively-funded sub-accounts
type Token struct {
	cli      *client.Client
	root     *wallet.Account
	chainID  *big.Int
	token    *workload.Token
	logger   *zap.SugaredLogger
	observer progress.Observer
}

// NewToken creates the token distributor
func NewToken(
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	token *workload.Token,
	logger *zap.SugaredLogger,
	observer progress.Observer,
) *Token {
	return &Token{
		cli:      cli,
		root:     root,
		chainID:  chainID,
		token:    token,
		logger:   logger.Named("token-distributor"),
		observer: observer,
	}
}

// Distribute tops up token balances of the ready accounts and returns the
// subset that actually holds enough tokens for the workload. Each account
// needs ceil(total / len(ready)) tokens
func (d *Token) Distribute(
	ctx context.Context,
	ready []*wallet.Account,
	total int,
) ([]*wallet.Account, error) {
	if len(ready) == 0 {
		return nil, errors.New("no accounts to distribute tokens to")
	}

	required := big.NewInt(int64((total + len(ready) - 1) / len(ready)))

	supplierBalance, err := d.token.BalanceOf(ctx, d.root.Address)
	if err != nil {
		return nil, errors.Wrap(err, "unable to fetch supplier balance")
	}

	var (
		funded = make([]*wallet.Account, 0, len(ready))
		queue  = newShortfallQueue()
	)

	for _, account := range ready {
		balance, err := d.token.BalanceOf(ctx, account.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to fetch token balance of %s", account.Address)
		}

		if balance.Cmp(required) >= 0 {
			funded = append(funded, account)

			continue
		}

		queue.push(&fundingEntry{
			Account:   account,
			Shortfall: new(big.Int).Sub(required, balance),
		})
	}

	if queue.Len() == 0 {
		d.logger.Infow("token balances already sufficient",
			"accounts", len(funded),
			"required", required.String(),
		)

		sortByIndex(funded)

		return funded, nil
	}

	// Smallest shortfalls first, while the supplier balance lasts
	fundable := make([]*fundingEntry, 0, queue.Len())

	for queue.Len() > 0 && supplierBalance.Cmp(queue.peekShortfall()) >= 0 {
		entry := queue.pop()

		supplierBalance.Sub(supplierBalance, entry.Shortfall)
		fundable = append(fundable, entry)
	}

	if len(fundable) == 0 {
		return nil, errors.Wrap(ErrInsufficientFunds, "supplier holds no distributable tokens")
	}

	if queue.Len() > 0 {
		d.logger.Warnw("token supply exhausted before all accounts were funded",
			"funded", len(fundable),
			"skipped", queue.Len(),
		)
	}

	if err := d.fund(ctx, fundable); err != nil {
		return nil, err
	}

	for _, entry := range fundable {
		funded = append(funded, entry.Account)
	}

	sortByIndex(funded)

	return funded, nil
}

// fund sends one awaited token transfer per entry
func (d *Token) fund(ctx context.Context, entries []*fundingEntry) error {
	gasPrice, err := d.cli.GasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to fetch gas price")
	}

	input, err := d.token.PackTransfer(entries[0].Account.Address, entries[0].Shortfall)
	if err != nil {
		return err
	}

	gasLimit, err := d.cli.EstimateGas(ctx, ethereum.CallMsg{
		From: d.root.Address,
		To:   &d.token.Address,
		Data: input,
	})
	if err != nil {
		return errors.Wrap(err, "unable to estimate token transfer")
	}

	// Headroom over the estimate, token transfers to fresh accounts touch
	// cold storage slots
	gasLimit = gasLimit * 3 / 2

	d.observer.StageStarted("Distributing tokens", len(entries))
	defer d.observer.StageDone()

	for _, entry := range entries {
		input, err := d.token.PackTransfer(entry.Account.Address, entry.Shortfall)
		if err != nil {
			return err
		}

		signedTx, err := types.SignTx(
			types.NewTransaction(
				d.root.UseNonce(),
				d.token.Address,
				nil,
				gasLimit,
				gasPrice,
				input,
			),
			types.NewEIP155Signer(d.chainID),
			d.root.PrivateKey(),
		)
		if err != nil {
			return errors.Wrap(err, "unable to sign token transfer")
		}

		if err := d.cli.SendTransaction(ctx, signedTx); err != nil {
			return errors.Wrapf(err, "unable to send tokens to %s", entry.Account.Address)
		}

		receipt, err := d.cli.WaitForReceipt(ctx, signedTx.Hash(), fundWaitDeadline)
		if err != nil {
			return errors.Wrapf(err, "token transfer to %s not mined", entry.Account.Address)
		}

		if receipt.Status == types.ReceiptStatusFailed {
			return errors.Errorf("token transfer %s reverted", signedTx.Hash())
		}

		d.observer.ItemCompleted()
	}

	return nil
}
