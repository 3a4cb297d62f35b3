package app

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

func buildTx(t *testing.T, payer solana.PublicKey, ixs ...solana.Instruction) *solana.Transaction {
	t.Helper()
	tx, err := solana.NewTransaction(ixs, solana.Hash{1}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}

func TestInspectTransactionDecodesProgramInstructions(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	deriver := solstrike.NewDeriver(solstrike.ProgramID, solstrike.DefaultSeeds())
	globalConfig, _, err := deriver.GlobalConfig()
	require.NoError(t, err)

	update, err := solstrike.NewUpdateSolChipPriceInstruction(solstrike.UpdateSolChipPriceAccounts{
		GlobalConfig: globalConfig,
		Signer:       signer,
	}, 12_345)
	require.NoError(t, err)
	other := solana.NewInstruction(solstrike.SystemProgramID, solana.AccountMetaSlice{}, []byte{2, 0, 0, 0})

	meta := &rpc.TransactionMeta{LogMessages: []string{
		"Program " + solstrike.ProgramIDBase58 + " invoke [1]",
		"Program log: Instruction: UpdateSolChipPrice",
		"Program " + solstrike.ProgramIDBase58 + " success",
	}}
	report := InspectTransaction(buildTx(t, signer, other, update), meta, solstrike.ProgramID, solbc.NewErrorAnalyzer(zap.NewNop()))

	assert.False(t, report.Failed())
	require.Len(t, report.Instructions, 2)
	assert.Nil(t, report.Instructions[0].Decoded)
	require.NotNil(t, report.Instructions[1].Decoded)
	assert.Equal(t, solstrike.InstructionKindUpdateSolChipPrice, report.Instructions[1].Decoded.Kind)
	assert.Equal(t, uint64(12_345), report.Instructions[1].Decoded.Amount)
	assert.Equal(t, []string{"UpdateSolChipPrice"}, report.Invoked)
	assert.Nil(t, report.ProgramError)
}

func TestInspectTransactionProgramError(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	ix, err := solstrike.NewReserveChipsInstruction(solstrike.ReserveChipsAccounts{
		Signer:          signer,
		ChipMint:        solana.NewWallet().PublicKey(),
		UserChipAccount: solana.NewWallet().PublicKey(),
	}, 1)
	require.NoError(t, err)
	analyzer := solbc.NewErrorAnalyzer(zap.NewNop())

	t.Run("anchor log", func(t *testing.T) {
		meta := &rpc.TransactionMeta{
			Err: map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 6000}}},
			LogMessages: []string{
				"Program log: Instruction: ReserveChips",
				"Program log: AnchorError occurred. Error Code: Overflow. Error Number: 6000. Error Message: Overflow.",
			},
		}
		report := InspectTransaction(buildTx(t, signer, ix), meta, solstrike.ProgramID, analyzer)
		assert.True(t, report.Failed())
		require.NotNil(t, report.Anchor)
		assert.Equal(t, "Overflow", report.Anchor.Name)
		require.NotNil(t, report.ProgramError)
		assert.Equal(t, solstrike.ErrorCodeOverflow, report.ProgramError.Code)
	})

	t.Run("status only", func(t *testing.T) {
		meta := &rpc.TransactionMeta{
			Err: map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 2006}}},
		}
		report := InspectTransaction(buildTx(t, signer, ix), meta, solstrike.ProgramID, analyzer)
		assert.Nil(t, report.Anchor)
		require.NotNil(t, report.ProgramError)
		assert.Equal(t, "ConstraintSeeds", report.ProgramError.Name)
	})

	t.Run("no meta", func(t *testing.T) {
		report := InspectTransaction(buildTx(t, signer, ix), nil, solstrike.ProgramID, analyzer)
		assert.False(t, report.Failed())
		require.Len(t, report.Instructions, 1)
		assert.Equal(t, solstrike.InstructionKindReserveChips, report.Instructions[0].Decoded.Kind)
	})
}
