package collector

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sig-0/pandoras-box/client"
)

// BlockStats describes a single block referenced by the run's receipts
type BlockStats struct {
	Number    uint64
	CreatedAt uint64
	NumTxs    int
	GasUsed   uint64
	GasLimit  uint64

	// GasUtilization is gasUsed / gasLimit as a fixed-point percentage
	// with two decimals
	GasUtilization decimal.Decimal

	// BlockTime is the whole-second distance to the parent block.
	// Zero-time blocks are excluded from the min / max TPS extremes
	BlockTime uint64
	TxPerSec  float64
}

// Summary aggregates the run's throughput
type Summary struct {
	AverageTPS     int
	MinTPS         float64
	MaxTPS         float64
	BlockCount     int
	TotalTxs       int
	TotalBlockTime uint64
	AvgUtilization decimal.Decimal

	// ZeroBlockTime is set when no block time was observable at all; the
	// average TPS is reported as 0 in that case
	ZeroBlockTime bool
}

// blockFetcher caches block summaries across reconstruction, so parent
// lookups don't refetch shared ancestors
type blockFetcher struct {
	cli   *client.Client
	cache map[uint64]*client.Block
}

func (f *blockFetcher) fetch(ctx context.Context, number uint64) (*client.Block, error) {
	if block, ok := f.cache[number]; ok {
		return block, nil
	}

	block, err := f.cli.GetBlockByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	f.cache[number] = block

	return block, nil
}

// ReconstructBlocks resolves the unique block set referenced by the
// receipts and derives per-block timing and utilization
func ReconstructBlocks(
	ctx context.Context,
	cli *client.Client,
	txs []TxStats,
) ([]BlockStats, error) {
	unique := make(map[uint64]struct{}, len(txs))

	for _, tx := range txs {
		// Block 0 means the receipt never resolved an inclusion
		if tx.Block > 0 {
			unique[tx.Block] = struct{}{}
		}
	}

	numbers := make([]uint64, 0, len(unique))
	for number := range unique {
		numbers = append(numbers, number)
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	fetcher := &blockFetcher{
		cli:   cli,
		cache: make(map[uint64]*client.Block),
	}

	blocks := make([]BlockStats, 0, len(numbers))

	for _, number := range numbers {
		block, err := fetcher.fetch(ctx, number)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to reconstruct block %d", number)
		}

		var blockTime uint64

		if number > 0 {
			parent, err := fetcher.fetch(ctx, number-1)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to fetch parent of block %d", number)
			}

			blockTime = absDiff(uint64(block.Timestamp), uint64(parent.Timestamp))
		}

		stats := BlockStats{
			Number:         number,
			CreatedAt:      uint64(block.Timestamp),
			NumTxs:         len(block.Transactions),
			GasUsed:        uint64(block.GasUsed),
			GasLimit:       uint64(block.GasLimit),
			GasUtilization: utilization(uint64(block.GasUsed), uint64(block.GasLimit)),
			BlockTime:      blockTime,
		}

		if blockTime > 0 {
			stats.TxPerSec = float64(stats.NumTxs) / float64(blockTime)
		}

		blocks = append(blocks, stats)
	}

	return blocks, nil
}

// Summarize folds per-block stats into the run summary. Blocks with a zero
// block time are skipped for the min / max extremes but still count toward
// the utilization average
func Summarize(blocks []BlockStats) Summary {
	summary := Summary{
		BlockCount: len(blocks),
		MinTPS:     -1,
	}

	if len(blocks) == 0 {
		summary.MinTPS = 0
		summary.ZeroBlockTime = true

		return summary
	}

	utilizationSum := decimal.Zero

	for _, block := range blocks {
		summary.TotalTxs += block.NumTxs
		summary.TotalBlockTime += block.BlockTime
		utilizationSum = utilizationSum.Add(block.GasUtilization)

		if block.BlockTime == 0 {
			continue
		}

		if summary.MinTPS < 0 || block.TxPerSec < summary.MinTPS {
			summary.MinTPS = block.TxPerSec
		}

		if block.TxPerSec > summary.MaxTPS {
			summary.MaxTPS = block.TxPerSec
		}
	}

	if summary.MinTPS < 0 {
		summary.MinTPS = 0
	}

	if summary.TotalBlockTime == 0 {
		summary.ZeroBlockTime = true
	} else {
		// Round up: partially used seconds still count
		summary.AverageTPS = int(
			(uint64(summary.TotalTxs) + summary.TotalBlockTime - 1) / summary.TotalBlockTime,
		)
	}

	summary.AvgUtilization = utilizationSum.
		Div(decimal.NewFromInt(int64(len(blocks)))).
		Round(2)

	return summary
}

// utilization computes gasUsed / gasLimit as a two-decimal percentage
func utilization(gasUsed, gasLimit uint64) decimal.Decimal {
	if gasLimit == 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(gasUsed * 10000 / gasLimit)).
		Div(decimal.NewFromInt(100))
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}

	return b - a
}
