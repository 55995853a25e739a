package wallet

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Account is a single mnemonic-derived account. Index 0 is the funding
// root; 1..K are sub-accounts. The nonce handle is the sole source of the
// nonce field for constructed transactions, and is owned by exactly one
// construction loop at a time, so no locking is involved.
type Account struct {
	Index   uint32
	Address common.Address

	key   *ecdsa.PrivateKey
	nonce uint64
}

// PrivateKey returns the derived signing key
func (a *Account) PrivateKey() *ecdsa.PrivateKey {
	return a.key
}

// Nonce returns the next nonce without consuming it
func (a *Account) Nonce() uint64 {
	return a.nonce
}

// UseNonce returns the next nonce and advances the handle by one
func (a *Account) UseNonce() uint64 {
	nonce := a.nonce
	a.nonce++

	return nonce
}

// SetNonce seeds the handle with the on-chain transaction count
func (a *Account) SetNonce(nonce uint64) {
	a.nonce = nonce
}
