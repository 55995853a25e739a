package collector

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// RenderReport writes the per-block utilization table and the run summary
func RenderReport(w io.Writer, summary Summary, blocks []BlockStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.FgCyan, color.Bold).Sprint("📊 Block utilization"))

	blockTable := tablewriter.NewWriter(w)
	blockTable.SetHeader([]string{"Block", "Created At", "Txs", "Gas Used", "Gas Limit", "Utilization %"})

	for _, block := range blocks {
		blockTable.Append([]string{
			strconv.FormatUint(block.Number, 10),
			strconv.FormatUint(block.CreatedAt, 10),
			strconv.Itoa(block.NumTxs),
			strconv.FormatUint(block.GasUsed, 10),
			strconv.FormatUint(block.GasLimit, 10),
			block.GasUtilization.StringFixed(2),
		})
	}

	blockTable.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.FgCyan, color.Bold).Sprint("📊 Throughput"))

	summaryTable := tablewriter.NewWriter(w)
	summaryTable.SetHeader([]string{"Avg TPS", "Min TPS", "Max TPS", "Blocks", "Avg Utilization %"})
	summaryTable.Append([]string{
		strconv.Itoa(summary.AverageTPS),
		fmt.Sprintf("%.2f", summary.MinTPS),
		fmt.Sprintf("%.2f", summary.MaxTPS),
		strconv.Itoa(summary.BlockCount),
		summary.AvgUtilization.StringFixed(2),
	})
	summaryTable.Render()

	if summary.ZeroBlockTime {
		fmt.Fprintln(w, color.YellowString(
			"⚠ no block time could be observed, average TPS reported as 0",
		))
	}
}
