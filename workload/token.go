package workload

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/sig-0/pandoras-box/client"
)

// Token is a handle to a deployed fungible token contract
type Token struct {
	Address common.Address
	Symbol  string

	abi abi.ABI
	cli *client.Client
}

// NewBoundToken binds the token ABI to an already-deployed address
func NewBoundToken(cli *client.Client, addr common.Address, symbol string) (*Token, error) {
	parsed, err := abi.JSON(strings.NewReader(TokenABI))
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse token ABI")
	}

	return &Token{
		Address: addr,
		Symbol:  symbol,
		abi:     parsed,
		cli:     cli,
	}, nil
}

// BalanceOf returns the token balance of the given holder
func (t *Token) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	input, err := t.abi.Pack("balanceOf", holder)
	if err != nil {
		return nil, errors.Wrap(err, "unable to pack balanceOf")
	}

	output, err := t.cli.CallContract(ctx, ethereum.CallMsg{
		To:   &t.Address,
		Data: input,
	})
	if err != nil {
		return nil, errors.Wrap(err, "balanceOf call failed")
	}

	results, err := t.abi.Unpack("balanceOf", output)
	if err != nil {
		return nil, errors.Wrap(err, "unable to unpack balanceOf")
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balanceOf result type")
	}

	return balance, nil
}

// PackTransfer encodes transfer(to, amount) calldata
func (t *Token) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	input, err := t.abi.Pack("transfer", to, amount)
	if err != nil {
		return nil, errors.Wrap(err, "unable to pack transfer")
	}

	return input, nil
}
