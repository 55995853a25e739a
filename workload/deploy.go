package workload

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/wallet"
)

const (
	// deployGasLimit covers both workload contracts
	deployGasLimit = uint64(10_000_000)

	deployDeadline = 60 * time.Second
)

// deployContract sends a contract creation from the root account, waits
// for it to be mined and verifies code landed at the counterfactual
// address
func deployContract(
	ctx context.Context,
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	payload []byte,
) (common.Address, error) {
	gasPrice, err := cli.GasPrice(ctx)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "unable to fetch deploy gas price")
	}

	nonce := root.UseNonce()

	signedTx, err := types.SignTx(
		types.NewContractCreation(nonce, nil, deployGasLimit, gasPrice, payload),
		types.NewEIP155Signer(chainID),
		root.PrivateKey(),
	)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "unable to sign deploy transaction")
	}

	if err := cli.SendTransaction(ctx, signedTx); err != nil {
		return common.Address{}, errors.Wrap(err, "unable to send deploy transaction")
	}

	contractAddr := crypto.CreateAddress(root.Address, nonce)

	receipt, err := cli.WaitForReceipt(ctx, signedTx.Hash(), deployDeadline)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "deploy transaction not mined")
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return common.Address{}, errors.Errorf("deploy transaction %s reverted", signedTx.Hash())
	}

	code, err := cli.CodeAt(ctx, contractAddr)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "unable to verify deployed code")
	}

	if len(code) == 0 {
		return common.Address{}, errors.Errorf("no code at %s after deploy", contractAddr)
	}

	return contractAddr, nil
}
