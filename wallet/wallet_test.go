package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMnemonic is the well-known development phrase used by local devnets
const testMnemonic = "test test test test test test test test test test test junk"

func TestWallet_Derive(t *testing.T) {
	t.Parallel()

	w, err := NewWallet(testMnemonic)
	require.NoError(t, err)

	// Expected m/44'/60'/0'/0/i addresses for the phrase
	expected := []common.Address{
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"),
	}

	for i, want := range expected {
		key, addr, err := w.Derive(uint32(i))
		require.NoError(t, err)

		assert.Equal(t, want, addr)
		assert.Equal(t, want, crypto.PubkeyToAddress(key.PublicKey))
	}
}

func TestWallet_DeriveDeterministic(t *testing.T) {
	t.Parallel()

	first, err := NewWallet(testMnemonic)
	require.NoError(t, err)

	second, err := NewWallet(testMnemonic)
	require.NoError(t, err)

	for i := uint32(0); i < 5; i++ {
		_, a, err := first.Derive(i)
		require.NoError(t, err)

		_, b, err := second.Derive(i)
		require.NoError(t, err)

		assert.Equal(t, a, b)
	}
}

func TestWallet_InvalidMnemonic(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name     string
		mnemonic string
	}{
		{
			"empty phrase",
			"",
		},
		{
			"bad checksum",
			"test test test test test test test test test test test test",
		},
		{
			"not words",
			"definitely not a bip39 phrase at all",
		},
	}

	for _, testCase := range testTable {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			w, err := NewWallet(testCase.mnemonic)

			assert.Nil(t, w)
			assert.ErrorIs(t, err, ErrInvalidMnemonic)
		})
	}
}

func TestAccount_NonceHandle(t *testing.T) {
	t.Parallel()

	w, err := NewWallet(testMnemonic)
	require.NoError(t, err)

	account, err := w.Account(1)
	require.NoError(t, err)

	account.SetNonce(10)

	// Consecutive, monotonically increasing
	for want := uint64(10); want < 15; want++ {
		assert.Equal(t, want, account.Nonce())
		assert.Equal(t, want, account.UseNonce())
	}

	assert.Equal(t, uint64(15), account.Nonce())
}
