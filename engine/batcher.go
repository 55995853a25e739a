package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/progress"
)

// Batcher groups signed transactions into JSON-RPC arrays of the
// configured size and posts all batches concurrently, one in-flight HTTP
// request per batch
type Batcher struct {
	cli       *client.Client
	batchSize int
	limiter   *rate.Limiter
	logger    *zap.SugaredLogger
	observer  progress.Observer
}

// SubmitResult is the outcome of a submission round. Failed elements land
// in Errors; everything else produced a transaction hash
type SubmitResult struct {
	Hashes []common.Hash
	Errors []string
}

// NewBatcher creates a batcher. rateLimit caps dispatched transactions per
// second; 0 disables the cap
func NewBatcher(
	cli *client.Client,
	batchSize int,
	rateLimit int,
	logger *zap.SugaredLogger,
	observer progress.Observer,
) *Batcher {
	var limiter *rate.Limiter
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	return &Batcher{
		cli:       cli,
		batchSize: batchSize,
		limiter:   limiter,
		logger:    logger.Named("batcher"),
		observer:  observer,
	}
}

// Submit posts the raw transactions and returns the accepted hashes along
// with per-element errors. Whole-batch network failures are logged and
// tallied, never retried; the run proceeds with whatever survived
func (b *Batcher) Submit(ctx context.Context, rawTxs []string) *SubmitResult {
	if len(rawTxs) == 0 {
		return &SubmitResult{}
	}

	numBatches := (len(rawTxs) + b.batchSize - 1) / b.batchSize

	// Per-batch slots, merged after the barrier. Responses are matched to
	// requests by id inside the rpc client, so slot order is submission
	// order
	type batchOutcome struct {
		hashes []common.Hash
		errs   []string
	}

	outcomes := make([]batchOutcome, numBatches)

	b.observer.StageStarted("Submitting transactions", len(rawTxs))
	defer b.observer.StageDone()

	var group errgroup.Group

	for batchIdx := 0; batchIdx < numBatches; batchIdx++ {
		var (
			batchIdx = batchIdx
			start    = batchIdx * b.batchSize
			end      = min(start+b.batchSize, len(rawTxs))
			chunk    = rawTxs[start:end]
		)

		group.Go(func() error {
			if b.limiter != nil {
				if err := b.limiter.WaitN(ctx, len(chunk)); err != nil {
					outcomes[batchIdx].errs = append(
						outcomes[batchIdx].errs,
						fmt.Sprintf("batch %d: %v", batchIdx, err),
					)

					return nil
				}
			}

			var (
				batch  = make([]rpc.BatchElem, len(chunk))
				hashes = make([]string, len(chunk))
			)

			for i, rawTx := range chunk {
				batch[i] = rpc.BatchElem{
					Method: "eth_sendRawTransaction",
					Args:   []any{rawTx},
					Result: &hashes[i],
				}
			}

			if err := b.cli.BatchCall(ctx, batch); err != nil {
				// The whole POST failed; drop the batch and move on
				b.logger.Errorw("batch submission failed",
					"batch", batchIdx,
					"size", len(chunk),
					"err", err,
				)

				outcomes[batchIdx].errs = append(
					outcomes[batchIdx].errs,
					fmt.Sprintf("batch %d: %v", batchIdx, err),
				)

				return nil
			}

			for i, elem := range batch {
				if elem.Error != nil {
					outcomes[batchIdx].errs = append(
						outcomes[batchIdx].errs,
						fmt.Sprintf("tx %d: %v", start+i, elem.Error),
					)

					continue
				}

				outcomes[batchIdx].hashes = append(
					outcomes[batchIdx].hashes,
					common.HexToHash(hashes[i]),
				)

				b.observer.ItemCompleted()
			}

			return nil
		})
	}

	// Workers swallow their errors, the barrier is for completion only
	_ = group.Wait()

	result := &SubmitResult{}

	for _, outcome := range outcomes {
		result.Hashes = append(result.Hashes, outcome.hashes...)
		result.Errors = append(result.Errors, outcome.errs...)
	}

	if len(result.Errors) > 0 {
		b.logger.Warnw("submission finished with errors",
			"accepted", len(result.Hashes),
			"failed", len(result.Errors),
		)
	}

	return result
}
