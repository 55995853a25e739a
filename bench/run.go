package bench

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/collector"
	"github.com/sig-0/pandoras-box/distributor"
	"github.com/sig-0/pandoras-box/engine"
	"github.com/sig-0/pandoras-box/progress"
	"github.com/sig-0/pandoras-box/wallet"
	"github.com/sig-0/pandoras-box/workload"
)

// Config is the full run configuration, parsed once from the CLI
type Config struct {
	JSONRPCURL string
	Mnemonic   string

	SubAccounts  int
	Transactions int
	BatchSize    int

	Mode   string
	Output string

	// RateLimit caps dispatched transactions per second, 0 = unlimited
	RateLimit int
}

// Validate rejects configurations before any network traffic
func (c Config) Validate() error {
	if c.JSONRPCURL == "" {
		return errors.New("missing JSON-RPC endpoint")
	}

	if c.Mnemonic == "" {
		return errors.New("missing mnemonic")
	}

	if c.SubAccounts < 1 {
		return errors.New("at least one sub-account is required")
	}

	if c.Transactions < 0 {
		return errors.New("transaction count cannot be negative")
	}

	if c.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}

	if _, err := workload.ParseMode(c.Mode); err != nil {
		return err
	}

	return nil
}

// Run drives the whole stress cycle: derive accounts, fund, construct,
// sign, submit, collect and report
func Run(
	ctx context.Context,
	cfg Config,
	logger *zap.SugaredLogger,
	observer progress.Observer,
) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	mode, _ := workload.ParseMode(cfg.Mode)

	w, err := wallet.NewWallet(cfg.Mnemonic)
	if err != nil {
		return err
	}

	root, err := w.Account(0)
	if err != nil {
		return errors.Wrap(err, "unable to derive root account")
	}

	// There is no point initializing more senders than transactions
	subCount := cfg.SubAccounts
	if cfg.Transactions > 0 && cfg.Transactions < subCount {
		subCount = cfg.Transactions
	}

	subAccounts := make([]*wallet.Account, 0, subCount)

	for i := 1; i <= subCount; i++ {
		account, err := w.Account(uint32(i))
		if err != nil {
			return errors.Wrapf(err, "unable to derive sub-account %d", i)
		}

		subAccounts = append(subAccounts, account)
	}

	cli, err := client.Dial(cfg.JSONRPCURL)
	if err != nil {
		return err
	}

	chainID, err := cli.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to fetch chain ID")
	}

	logger.Infow("starting run",
		"endpoint", cfg.JSONRPCURL,
		"chainID", chainID.String(),
		"mode", mode,
		"transactions", cfg.Transactions,
		"subAccounts", subCount,
		"batchSize", cfg.BatchSize,
	)

	// The root signs deploys and funding transfers; seed its nonce first
	rootNonce, err := cli.PendingNonce(ctx, root.Address)
	if err != nil {
		return errors.Wrap(err, "unable to fetch root nonce")
	}

	root.SetNonce(rootNonce)

	rt, err := workload.New(mode, cli, root, chainID, logger)
	if err != nil {
		return err
	}

	if err := rt.GetGasPrice(ctx); err != nil {
		return err
	}

	if err := rt.Initialize(ctx); err != nil {
		return err
	}

	if err := rt.EstimateBaseTx(ctx); err != nil {
		return err
	}

	if cfg.Transactions == 0 {
		logger.Infow("no stat data, zero transactions requested")

		return nil
	}

	ready, err := distributor.NewNative(cli, root, chainID, logger, observer).
		Distribute(ctx, subAccounts, cfg.Transactions, rt.Descriptor())
	if err != nil {
		return err
	}

	if mode == workload.ModeERC20 {
		erc20, ok := rt.(*workload.ERC20Runtime)
		if !ok {
			return errors.New("runtime mode mismatch")
		}

		token, err := erc20.Token()
		if err != nil {
			return err
		}

		ready, err = distributor.NewToken(cli, root, chainID, token, logger, observer).
			Distribute(ctx, ready, cfg.Transactions)
		if err != nil {
			return err
		}
	}

	rawTxs, err := engine.New(cli, rt, chainID, logger, observer).
		Prepare(ctx, ready, cfg.Transactions)
	if err != nil {
		return err
	}

	if len(rawTxs) == 0 {
		return errors.New("no transactions survived signing")
	}

	fmt.Println(rt.GetStartMessage())

	submitted := engine.NewBatcher(cli, cfg.BatchSize, cfg.RateLimit, logger, observer).
		Submit(ctx, rawTxs)

	if len(submitted.Hashes) == 0 {
		return errors.Errorf(
			"no transactions accepted by the node (%d submission errors)",
			len(submitted.Errors),
		)
	}

	result, err := collector.New(cli, cfg.BatchSize, logger, observer).
		Collect(ctx, submitted.Hashes)
	if err != nil {
		return err
	}

	for _, message := range append(submitted.Errors, result.Errors...) {
		logger.Warnw("transaction lost", "reason", message)
	}

	blocks, err := collector.ReconstructBlocks(ctx, cli, result.TxStats)
	if err != nil {
		return err
	}

	summary := collector.Summarize(blocks)
	collector.RenderReport(os.Stdout, summary, blocks)

	if cfg.Output != "" && len(blocks) > 0 {
		if err := collector.WriteJSON(cfg.Output, summary, blocks); err != nil {
			return err
		}

		logger.Infow("results written", "path", cfg.Output)
	}

	return nil
}
