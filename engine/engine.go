package engine

import (
	"context"
	"math/big"
	"runtime"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/progress"
	"github.com/sig-0/pandoras-box/wallet"
	"github.com/sig-0/pandoras-box/workload"
)

// Engine turns a workload into signed raw transactions: it seeds account
// nonces from the chain, lets the runtime construct, then signs in an
// order-preserving worker pool
type Engine struct {
	cli      *client.Client
	runtime  workload.Runtime
	chainID  *big.Int
	logger   *zap.SugaredLogger
	observer progress.Observer
}

// New creates an engine for the given runtime
func New(
	cli *client.Client,
	rt workload.Runtime,
	chainID *big.Int,
	logger *zap.SugaredLogger,
	observer progress.Observer,
) *Engine {
	return &Engine{
		cli:      cli,
		runtime:  rt,
		chainID:  chainID,
		logger:   logger.Named("engine"),
		observer: observer,
	}
}

// Prepare produces the hex-encoded signed transactions for the run.
// Individual signing failures are logged and skipped; the run continues
// with fewer transactions
func (e *Engine) Prepare(
	ctx context.Context,
	accounts []*wallet.Account,
	total int,
) ([]string, error) {
	if err := e.fetchNonces(ctx, accounts); err != nil {
		return nil, err
	}

	txs, err := e.runtime.ConstructTransactions(accounts, total)
	if err != nil {
		return nil, errors.Wrap(err, "unable to construct transactions")
	}

	return e.sign(txs), nil
}

// fetchNonces seeds every account handle with its on-chain nonce, one
// request per account, in parallel
func (e *Engine) fetchNonces(ctx context.Context, accounts []*wallet.Account) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, account := range accounts {
		account := account

		group.Go(func() error {
			nonce, err := e.cli.PendingNonce(groupCtx, account.Address)
			if err != nil {
				return errors.Wrapf(err, "unable to fetch nonce of %s", account.Address)
			}

			account.SetNonce(nonce)

			return nil
		})
	}

	return group.Wait()
}

// sign produces the raw blobs in construction order. Signing is CPU-bound,
// so it is spread over a bounded worker pool; slot indices keep the output
// order stable
func (e *Engine) sign(txs []*workload.Tx) []string {
	var (
		signer = types.NewEIP155Signer(e.chainID)
		slots  = make([]string, len(txs))
	)

	e.observer.StageStarted("Signing transactions", len(txs))
	defer e.observer.StageDone()

	var group errgroup.Group

	group.SetLimit(runtime.NumCPU())

	for i, tx := range txs {
		i, tx := i, tx

		group.Go(func() error {
			signedTx, err := types.SignTx(tx.Tx, signer, tx.Sender.PrivateKey())
			if err != nil {
				e.logger.Errorw("unable to sign transaction, skipping",
					"index", i,
					"sender", tx.Sender.Address.Hex(),
					"err", err,
				)

				return nil
			}

			raw, err := signedTx.MarshalBinary()
			if err != nil {
				e.logger.Errorw("unable to encode transaction, skipping",
					"index", i,
					"err", err,
				)

				return nil
			}

			slots[i] = hexutil.Encode(raw)
			e.observer.ItemCompleted()

			return nil
		})
	}

	// Workers never return errors, failures are skips
	_ = group.Wait()

	signed := make([]string, 0, len(slots))

	for _, raw := range slots {
		if raw != "" {
			signed = append(signed, raw)
		}
	}

	if dropped := len(slots) - len(signed); dropped > 0 {
		e.logger.Warnw("transactions dropped during signing", "count", dropped)
	}

	return signed
}
