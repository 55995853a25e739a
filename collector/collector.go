package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/progress"
)

const (
	// drainPollInterval paces the txpool_status polls
	drainPollInterval = 2 * time.Second

	// minDrainTimeout is the floor of the mempool drain deadline; the
	// deadline grows with the submitted count
	minDrainTimeout  = 5 * time.Second
	perTxDrainBudget = 500 * time.Millisecond

	// fallbackDeadline bounds each individual receipt poll in phase 3
	fallbackDeadline = 30 * time.Second

	// blockWaitCap bounds the pause between batched receipt sweeps
	blockWaitPollInterval = 500 * time.Millisecond
	blockWaitCap          = 15 * time.Second
)

// ErrExecutionFailed is returned when a receipt reports status 0: the node
// accepted and mined a transaction that reverted
var ErrExecutionFailed = errors.New("transaction execution failed")

// TxStats records an included transaction
type TxStats struct {
	Hash  common.Hash
	Block uint64
}

// Result is the outcome of receipt gathering. Every submitted hash lands
// either in TxStats or in Errors, never both, never neither
type Result struct {
	TxStats []TxStats
	Errors  []string
}

// Collector waits out the mempool and gathers receipts: batched sweeps
// first, individual polling for the stragglers
type Collector struct {
	cli       *client.Client
	batchSize int
	logger    *zap.SugaredLogger
	observer  progress.Observer
}

// New creates a collector reusing the submission batch size
func New(
	cli *client.Client,
	batchSize int,
	logger *zap.SugaredLogger,
	observer progress.Observer,
) *Collector {
	return &Collector{
		cli:       cli,
		batchSize: batchSize,
		logger:    logger.Named("collector"),
		observer:  observer,
	}
}

// Collect drains the mempool and resolves every submitted hash to a
// receipt or an error entry
func (c *Collector) Collect(ctx context.Context, hashes []common.Hash) (*Result, error) {
	result := &Result{}

	if len(hashes) == 0 {
		return result, nil
	}

	c.drainMempool(ctx, len(hashes))

	c.observer.StageStarted("Gathering receipts", len(hashes))
	defer c.observer.StageDone()

	// Batched sweeps, budgeted at 2.5% of the submitted count
	outstanding := make([]common.Hash, len(hashes))
	copy(outstanding, hashes)

	budget := (len(hashes)*25 + 999) / 1000
	if budget < 1 {
		budget = 1
	}

	for sweep := 0; sweep < budget && len(outstanding) > 0; sweep++ {
		remaining, err := c.sweep(ctx, outstanding, result)
		if err != nil {
			return nil, err
		}

		outstanding = remaining

		// Let pending transactions mature before the next pass
		if len(outstanding) > 0 && sweep+1 < budget {
			c.waitNextBlock(ctx)
		}
	}

	// Individual fallback for whatever the sweeps missed
	for _, hash := range outstanding {
		receipt, err := c.cli.WaitForReceipt(ctx, hash, fallbackDeadline)
		if err != nil {
			c.logger.Warnw("receipt not found", "hash", hash.Hex(), "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("receipt not found: %s", hash))

			continue
		}

		if receipt.Status == types.ReceiptStatusFailed {
			return nil, errors.Wrapf(ErrExecutionFailed, "transaction %s reverted", hash)
		}

		result.TxStats = append(result.TxStats, TxStats{
			Hash:  hash,
			Block: receipt.BlockNumber.Uint64(),
		})
		c.observer.ItemCompleted()
	}

	return result, nil
}

// drainMempool polls txpool_status until both pools are empty or the
// deadline passes. Nodes without the endpoint just ride out the deadline;
// polling errors are transient
func (c *Collector) drainMempool(ctx context.Context, submitted int) {
	timeout := time.Duration(submitted) * perTxDrainBudget
	if timeout < minDrainTimeout {
		timeout = minDrainTimeout
	}

	drainCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(drainPollInterval)
	defer tick.Stop()

	for {
		status, err := c.cli.TxPoolStatus(drainCtx)
		if err != nil {
			c.logger.Debugw("txpool status unavailable", "err", err)
		} else if status.IsEmpty() {
			c.logger.Infow("mempool drained")

			return
		} else {
			c.logger.Debugw("mempool not drained",
				"pending", status.Pending,
				"queued", status.Queued,
			)
		}

		select {
		case <-drainCtx.Done():
			c.logger.Warnw("mempool did not drain in time", "timeout", timeout.String())

			return
		case <-tick.C:
		}
	}
}

// sweep issues one round of batched receipt requests over the outstanding
// set and returns the hashes still unresolved. Batches go out concurrently,
// mirroring submission
func (c *Collector) sweep(
	ctx context.Context,
	outstanding []common.Hash,
	result *Result,
) ([]common.Hash, error) {
	numBatches := (len(outstanding) + c.batchSize - 1) / c.batchSize

	receipts := make([]*types.Receipt, len(outstanding))
	failures := make([]error, len(outstanding))

	var group errgroup.Group

	for batchIdx := 0; batchIdx < numBatches; batchIdx++ {
		var (
			start = batchIdx * c.batchSize
			end   = min(start+c.batchSize, len(outstanding))
			chunk = outstanding[start:end]
		)

		group.Go(func() error {
			batch := make([]rpc.BatchElem, len(chunk))

			for i, hash := range chunk {
				batch[i] = rpc.BatchElem{
					Method: "eth_getTransactionReceipt",
					Args:   []any{hash},
					Result: &receipts[start+i],
				}
			}

			if err := c.cli.BatchCall(ctx, batch); err != nil {
				c.logger.Debugw("receipt batch failed", "err", err)

				return nil
			}

			for i, elem := range batch {
				if elem.Error != nil {
					failures[start+i] = elem.Error
				}
			}

			return nil
		})
	}

	_ = group.Wait()

	remaining := make([]common.Hash, 0)

	for i, hash := range outstanding {
		receipt := receipts[i]

		// Unresolved either way; the next sweep (or the individual
		// fallback) picks it up
		if receipt == nil || failures[i] != nil {
			remaining = append(remaining, hash)

			continue
		}

		if receipt.Status == types.ReceiptStatusFailed {
			return nil, errors.Wrapf(ErrExecutionFailed, "transaction %s reverted", hash)
		}

		result.TxStats = append(result.TxStats, TxStats{
			Hash:  hash,
			Block: receipt.BlockNumber.Uint64(),
		})
		c.observer.ItemCompleted()
	}

	return remaining, nil
}

// waitNextBlock blocks until the chain head advances, bounded by
// blockWaitCap
func (c *Collector) waitNextBlock(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(ctx, blockWaitCap)
	defer cancel()

	last, err := c.cli.BlockNumber(waitCtx)
	if err != nil {
		return
	}

	tick := time.NewTicker(blockWaitPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return
		case <-tick.C:
		}

		current, err := c.cli.BlockNumber(waitCtx)
		if err == nil && current > last {
			return
		}
	}
}
