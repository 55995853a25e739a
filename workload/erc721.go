package workload

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/sig-0/pandoras-box/client"
	"github.com/sig-0/pandoras-box/wallet"
)

const (
	nftName   = "Pandora NFT"
	nftSymbol = "PNFT"

	// nftTokenURI is minted into every NFT; the metadata itself is
	// irrelevant to the stress run
	nftTokenURI = "https://really-valuable-nft-metadata.io/1.json"
)

// ERC721Runtime mints NFTs from the sub-accounts against a freshly
// deployed collection. Mints have no receiver account
type ERC721Runtime struct {
	cli     *client.Client
	root    *wallet.Account
	chainID *big.Int
	logger  *zap.SugaredLogger

	contract common.Address
	abi      *abi.ABI
	desc     Descriptor
}

// NewERC721Runtime creates the NFT-mint workload
func NewERC721Runtime(
	cli *client.Client,
	root *wallet.Account,
	chainID *big.Int,
	logger *zap.SugaredLogger,
) *ERC721Runtime {
	return &ERC721Runtime{
		cli:     cli,
		root:    root,
		chainID: chainID,
		logger:  logger.Named("erc721"),
		desc: Descriptor{
			Mode:  ModeERC721,
			Value: big.NewInt(0),
		},
	}
}

// Initialize deploys the NFT collection
func (r *ERC721Runtime) Initialize(ctx context.Context) error {
	parsed, err := abi.JSON(strings.NewReader(NFTABI))
	if err != nil {
		return errors.Wrap(err, "unable to parse NFT ABI")
	}

	args, err := parsed.Pack("", nftName, nftSymbol)
	if err != nil {
		return errors.Wrap(err, "unable to pack NFT constructor")
	}

	addr, err := deployContract(
		ctx,
		r.cli,
		r.root,
		r.chainID,
		append(common.FromHex(NFTBytecode), args...),
	)
	if err != nil {
		return errors.Wrap(err, "unable to deploy NFT collection")
	}

	r.contract = addr
	r.abi = &parsed

	r.logger.Infow("NFT collection deployed",
		"address", addr.Hex(),
		"name", nftName,
		"symbol", nftSymbol,
	)

	return nil
}

// GetGasPrice queries and pins the node's suggested gas price
func (r *ERC721Runtime) GetGasPrice(ctx context.Context) error {
	return fetchGasPrice(ctx, r.cli, &r.desc)
}

// EstimateBaseTx estimates a single mint
func (r *ERC721Runtime) EstimateBaseTx(ctx context.Context) error {
	if r.abi == nil {
		return ErrNotInitialized
	}

	input, err := r.abi.Pack("createNFT", nftTokenURI)
	if err != nil {
		return errors.Wrap(err, "unable to pack createNFT")
	}

	gas, err := r.cli.EstimateGas(ctx, ethereum.CallMsg{
		From: r.root.Address,
		To:   &r.contract,
		Data: input,
	})
	if err != nil {
		return errors.Wrap(err, "unable to estimate mint")
	}

	r.desc.BaseGas = gas

	return nil
}

// GetValue returns zero: mints move no native value
func (r *ERC721Runtime) GetValue() *big.Int {
	return r.desc.Value
}

// ConstructTransactions builds total mints, round-robin over the ready
// accounts
func (r *ERC721Runtime) ConstructTransactions(
	accounts []*wallet.Account,
	total int,
) ([]*Tx, error) {
	if r.abi == nil {
		return nil, ErrNotInitialized
	}

	if len(accounts) == 0 {
		return nil, errors.New("no accounts to construct with")
	}

	input, err := r.abi.Pack("createNFT", nftTokenURI)
	if err != nil {
		return nil, errors.Wrap(err, "unable to pack createNFT")
	}

	txs := make([]*Tx, 0, total)

	for i := 0; i < total; i++ {
		sender := accounts[i%len(accounts)]

		txs = append(txs, &Tx{
			Sender: sender,
			Tx: types.NewTransaction(
				sender.UseNonce(),
				r.contract,
				nil,
				r.desc.BaseGas,
				r.desc.GasPrice,
				input,
			),
		})
	}

	return txs, nil
}

// GetStartMessage returns the run banner
func (r *ERC721Runtime) GetStartMessage() string {
	return color.New(color.FgGreen, color.Bold).Sprintf(
		"🚀 ERC-721 mint stress run (%s)", nftSymbol,
	)
}

// Descriptor exposes the runtime cost model
func (r *ERC721Runtime) Descriptor() *Descriptor {
	return &r.desc
}
