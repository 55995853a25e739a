package wallet

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrInvalidMnemonic is returned when the supplied phrase fails the
	// BIP-39 checksum
	ErrInvalidMnemonic = errors.New("invalid BIP-39 mnemonic")
)

// Wallet derives Ethereum keys from a BIP-39 mnemonic along the standard
// m/44'/60'/0'/0/i path. The first four segments are derived once; Derive
// only walks the final, non-hardened index.
type Wallet struct {
	branch *hdkeychain.ExtendedKey
}

// NewWallet builds the m/44'/60'/0'/0 branch for the given mnemonic
func NewWallet(mnemonic string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, "")

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "unable to generate master key")
	}

	branch := master
	for _, segment := range []uint32{
		hdkeychain.HardenedKeyStart + 44, // purpose
		hdkeychain.HardenedKeyStart + 60, // coin type (ETH)
		hdkeychain.HardenedKeyStart,      // account 0
		0,                                // external chain
	} {
		if branch, err = branch.Derive(segment); err != nil {
			return nil, errors.Wrap(err, "unable to derive path segment")
		}
	}

	return &Wallet{branch: branch}, nil
}

// Derive returns the private key and address at m/44'/60'/0'/0/index
func (w *Wallet) Derive(index uint32) (*ecdsa.PrivateKey, common.Address, error) {
	child, err := w.branch.Derive(index)
	if err != nil {
		return nil, common.Address{}, errors.Wrapf(err, "unable to derive index %d", index)
	}

	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "unable to extract private key")
	}

	key := priv.ToECDSA()

	return key, crypto.PubkeyToAddress(key.PublicKey), nil
}

// Account derives the account at the given index with a zeroed nonce
func (w *Wallet) Account(index uint32) (*Account, error) {
	key, addr, err := w.Derive(index)
	if err != nil {
		return nil, err
	}

	return &Account{
		Index:   index,
		Address: addr,
		key:     key,
	}, nil
}
