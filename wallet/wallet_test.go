package wallet_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/wallet"
)

func TestKeystoreRoundTrip(t *testing.T) {
	w, err := wallet.Generate("test")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys", "node.json")
	require.NoError(t, wallet.SaveKey(path, "secret", w.PrivKey()))

	loaded, err := wallet.LoadWallet(path, "secret", "test")
	require.NoError(t, err)
	assert.Equal(t, w.Account(), loaded.Account())

	_, err = wallet.LoadKey(path, "wrong")
	assert.ErrorIs(t, err, wallet.ErrWrongPassword)
}

func TestBuildersSignForChain(t *testing.T) {
	w, err := wallet.Generate("liganite-test")
	require.NoError(t, err)

	tx, err := w.PurchaseGame("publisher", 7, 3)
	require.NoError(t, err)
	assert.Equal(t, core.TxPurchaseGame, tx.Type)
	assert.Equal(t, "liganite-test", tx.ChainID)
	assert.Equal(t, w.Account(), tx.From)
	assert.Equal(t, uint64(3), tx.Nonce)
	require.NoError(t, tx.Verify())

	tx.Payload = []byte(`{"publisher":"publisher","game_id":8}`)
	assert.Error(t, tx.Verify())
}
