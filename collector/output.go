package collector

import (
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

type blockJSON struct {
	BlockNum       uint64         `json:"blockNum"`
	CreatedAt      uint64         `json:"createdAt"`
	NumTxs         int            `json:"numTxs"`
	GasUsed        hexutil.Uint64 `json:"gasUsed"`
	GasLimit       hexutil.Uint64 `json:"gasLimit"`
	GasUtilization float64        `json:"gasUtilization"`
}

type reportJSON struct {
	AverageTPS int         `json:"averageTPS"`
	MinTPS     float64     `json:"minTPS"`
	MaxTPS     float64     `json:"maxTPS"`
	Blocks     []blockJSON `json:"blocks"`
}

// WriteJSON persists the run results to the given path
func WriteJSON(path string, summary Summary, blocks []BlockStats) error {
	report := reportJSON{
		AverageTPS: summary.AverageTPS,
		MinTPS:     summary.MinTPS,
		MaxTPS:     summary.MaxTPS,
		Blocks:     make([]blockJSON, 0, len(blocks)),
	}

	for _, block := range blocks {
		report.Blocks = append(report.Blocks, blockJSON{
			BlockNum:       block.Number,
			CreatedAt:      block.CreatedAt,
			NumTxs:         block.NumTxs,
			GasUsed:        hexutil.Uint64(block.GasUsed),
			GasLimit:       hexutil.Uint64(block.GasLimit),
			GasUtilization: block.GasUtilization.InexactFloat64(),
		})
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode results")
	}

	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return errors.Wrap(err, "unable to write results")
	}

	return nil
}
