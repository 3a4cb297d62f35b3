package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

func TestNewWallet(t *testing.T) {
	key := solana.NewWallet().PrivateKey

	w, err := NewWallet(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.Address())
	assert.Equal(t, key.PublicKey().String(), w.String())

	_, err = NewWallet("not base58 0OIl")
	assert.Error(t, err)

	_, err = NewWallet(key.PublicKey().String())
	assert.ErrorContains(t, err, "invalid private key length")
}

func TestLoadKeypairFile(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)

	w, err = Load(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)

	_, err = LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	w := fromPrivateKey(solana.NewWallet().PrivateKey)
	ix := solana.NewInstruction(solstrike.ProgramID, []*solana.AccountMeta{
		{PublicKey: w.PublicKey, IsWritable: true, IsSigner: true},
	}, []byte{1})

	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(w.PublicKey))
	require.NoError(t, err)
	require.NoError(t, w.SignTransaction(tx))
	require.Len(t, tx.Signatures, 1)
	assert.False(t, tx.Signatures[0].IsZero())
}

func TestGetATA(t *testing.T) {
	w := fromPrivateKey(solana.NewWallet().PrivateKey)
	mint := solana.NewWallet().PublicKey()

	chip, err := w.GetATA(mint, solana.PublicKey{})
	require.NoError(t, err)
	want, err := solstrike.AssociatedTokenAddress(w.PublicKey, mint, solstrike.Token2022ProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, chip)

	classic, err := w.GetATA(mint, solstrike.TokenProgramID)
	require.NoError(t, err)
	assert.NotEqual(t, chip, classic)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := w.GetATA(mint, solana.PublicKey{})
			assert.NoError(t, err)
			assert.Equal(t, chip, got)
		}()
	}
	wg.Wait()

	require.NoError(t, w.PrecomputeATAs(solstrike.TokenProgramID, mint, solana.NewWallet().PublicKey()))
}

func TestCreateAssociatedTokenAccountIdempotentInstruction(t *testing.T) {
	payer, owner, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	ix, err := CreateAssociatedTokenAccountIdempotentInstruction(payer, owner, mint, solana.PublicKey{})
	require.NoError(t, err)
	assert.Equal(t, solstrike.AssociatedTokenProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 6)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, solstrike.Token2022ProgramID, accounts[5].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
}
