package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sig-0/pandoras-box/bench"
	"github.com/sig-0/pandoras-box/progress"
)

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := bench.Config{}

	rootCmd := &cobra.Command{
		Use:   "pandoras-box",
		Short: "EVM JSON-RPC stress tester",
		Long: `Generates, signs and submits transaction workloads against an EVM
node at maximum JSON-RPC throughput, then measures what the node
actually achieved.

Example:
  pandoras-box --json-rpc http://127.0.0.1:8545 --mnemonic "<phrase>" --transactions 5000 --mode ERC20`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return bench.Run(ctx, cfg, logger.Sugar(), progress.NewBars())
		},
	}

	rootCmd.Flags().StringVar(&cfg.JSONRPCURL, "json-rpc", "", "JSON-RPC endpoint of the target node")
	rootCmd.Flags().StringVar(&cfg.Mnemonic, "mnemonic", "", "BIP-39 mnemonic of the funding root account")
	rootCmd.Flags().IntVar(&cfg.SubAccounts, "sub-accounts", 10, "number of sending sub-accounts")
	rootCmd.Flags().IntVar(&cfg.Transactions, "transactions", 2000, "total number of transactions")
	rootCmd.Flags().StringVar(&cfg.Mode, "mode", "EOA", "workload mode: EOA, ERC20 or ERC721")
	rootCmd.Flags().StringVar(&cfg.Output, "output", "", "path of the result JSON file")
	rootCmd.Flags().IntVar(&cfg.BatchSize, "batch", 20, "transactions per JSON-RPC batch")
	rootCmd.Flags().IntVar(&cfg.RateLimit, "rate-limit", 0, "cap on dispatched transactions per second, 0 = unlimited")

	_ = rootCmd.MarkFlagRequired("json-rpc")
	_ = rootCmd.MarkFlagRequired("mnemonic")

	if err := rootCmd.Execute(); err != nil {
		logger.Sugar().Errorw("run failed", "err", err)
		os.Exit(1)
	}
}

// newLogger builds the console logger backing all pipeline components
func newLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.DisableStacktrace = true

	return config.Build()
}
