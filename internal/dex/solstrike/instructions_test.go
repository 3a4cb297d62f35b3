package solstrike

import (
	"bytes"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

type flag struct {
	key      solana.PublicKey
	writable bool
	signer   bool
}

func assertMetas(t *testing.T, ix *solana.GenericInstruction, want []flag) {
	t.Helper()
	metas := ix.Accounts()
	require.Len(t, metas, len(want))
	for i, w := range want {
		assert.Equal(t, w.key, metas[i].PublicKey, "account %d", i)
		assert.Equal(t, w.writable, metas[i].IsWritable, "account %d writable", i)
		assert.Equal(t, w.signer, metas[i].IsSigner, "account %d signer", i)
	}
}

func TestBuyChipWithSolInstruction(t *testing.T) {
	accounts := BuyChipWithSolAccounts{
		Buyer:            key(),
		GlobalConfig:     key(),
		Treasury:         key(),
		ChipMint:         key(),
		BuyerChipAccount: key(),
	}

	ix, err := NewBuyChipWithSolInstruction(accounts, 17_000_000_000)
	require.NoError(t, err)

	assert.Equal(t, ProgramID, ix.ProgramID())
	assertMetas(t, ix, []flag{
		{accounts.Buyer, true, true},
		{accounts.GlobalConfig, false, false},
		{accounts.Treasury, true, false},
		{accounts.ChipMint, true, false},
		{accounts.BuyerChipAccount, true, false},
		{Token2022ProgramID, false, false},
		{AssociatedTokenProgramID, false, false},
		{SystemProgramID, false, false},
	})

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, append(InstructionKindBuyChipWithSol.Discriminator().Bytes(),
		0x00, 0x6a, 0x47, 0xf5, 0x03, 0x00, 0x00, 0x00), data)
}

func TestUpdateSolChipPriceSignerIsReadOnly(t *testing.T) {
	accounts := UpdateSolChipPriceAccounts{GlobalConfig: key(), Signer: key()}

	ix, err := NewUpdateSolChipPriceInstruction(accounts, 20_000_000)
	require.NoError(t, err)
	assertMetas(t, ix, []flag{
		{accounts.GlobalConfig, true, false},
		{accounts.Signer, false, true},
	})
}

func TestInstructionProgramOverrides(t *testing.T) {
	program := key()
	accounts := BuyChipAccounts{
		ChipTokenPriceState:  key(),
		Treasury:             key(),
		TreasuryTokenAccount: key(),
		Buyer:                key(),
		ChipMint:             key(),
		BuyerChipAccount:     key(),
		BuyerTokenAccount:    key(),
		PaymentTokenMint:     key(),
		Programs:             ProgramAddresses{TokenProgram: TokenProgramID},
	}

	ix, err := NewBuyChipInstruction(accounts, 5, WithProgramID(program))
	require.NoError(t, err)
	assert.Equal(t, program, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 11)
	assert.Equal(t, TokenProgramID, metas[8].PublicKey)
	assert.Equal(t, AssociatedTokenProgramID, metas[9].PublicKey)
	assert.Equal(t, SystemProgramID, metas[10].PublicKey)
}

func TestInstructionMissingAccount(t *testing.T) {
	_, err := NewInitGlobalConfigInstruction(InitGlobalConfigAccounts{Signer: key()}, 10_000_000)
	assert.ErrorIs(t, err, ErrMissingAccount)
	assert.Contains(t, err.Error(), "global_config")

	_, err = NewClaimChipsInstruction(ClaimChipsAccounts{})
	assert.ErrorIs(t, err, ErrMissingAccount)
}

func TestInstructionDataRoundTrip(t *testing.T) {
	receive := key()

	build := map[InstructionKind]func() (*solana.GenericInstruction, error){
		InstructionKindInitialize: func() (*solana.GenericInstruction, error) {
			return NewInitializeInstruction(InitializeAccounts{ChipMint: key(), Treasury: key(), Signer: key()})
		},
		InstructionKindInitGlobalConfig: func() (*solana.GenericInstruction, error) {
			return NewInitGlobalConfigInstruction(InitGlobalConfigAccounts{Signer: key(), GlobalConfig: key()}, 10_000_000)
		},
		InstructionKindReserveChips: func() (*solana.GenericInstruction, error) {
			return NewReserveChipsInstruction(ReserveChipsAccounts{Signer: key(), ChipMint: key(), UserChipAccount: key()}, 42)
		},
		InstructionKindSetClaimableRewards: func() (*solana.GenericInstruction, error) {
			return NewSetClaimableRewardsInstruction(SetClaimableRewardsAccounts{
				Signer: key(), GlobalConfig: key(), Recipient: key(), ClaimableRewards: key(),
			}, 500)
		},
		InstructionKindSellChip: func() (*solana.GenericInstruction, error) {
			return NewSellChipUnverifiedInstruction(9, receive)
		},
	}

	want := map[InstructionKind]DecodedInstruction{
		InstructionKindInitialize:          {Kind: InstructionKindInitialize},
		InstructionKindInitGlobalConfig:    {Kind: InstructionKindInitGlobalConfig, Amount: 10_000_000},
		InstructionKindReserveChips:        {Kind: InstructionKindReserveChips, Amount: 42},
		InstructionKindSetClaimableRewards: {Kind: InstructionKindSetClaimableRewards, Amount: 500},
		InstructionKindSellChip:            {Kind: InstructionKindSellChip, Amount: 9, ReceiveToken: receive},
	}

	for kind, fn := range build {
		t.Run(kind.String(), func(t *testing.T) {
			ix, err := fn()
			require.NoError(t, err)
			data, err := ix.Data()
			require.NoError(t, err)

			decoded, err := DecodeInstructionData(data)
			require.NoError(t, err)
			assert.Equal(t, want[kind], *decoded)
		})
	}
}

func TestSellChipHasNoAccounts(t *testing.T) {
	ix, err := NewSellChipUnverifiedInstruction(1, key())
	require.NoError(t, err)
	assert.Empty(t, ix.Accounts())

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Len(t, data, 48)
}

func TestDecodeInstructionDataErrors(t *testing.T) {
	_, err := DecodeInstructionData([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrUnknownInstruction)

	_, err = DecodeInstructionData(InstructionKindBuyChip.Discriminator().Bytes())
	assert.ErrorIs(t, err, ErrInstructionData)

	_, err = DecodeInstructionData(append(InstructionKindClaimChips.Discriminator().Bytes(), 0))
	assert.ErrorIs(t, err, ErrInstructionData)
}

func TestInstructionAccountTables(t *testing.T) {
	var (
		signer, mint, treasury, treasuryATA = key(), key(), key(), key()
		priceState, globalConfig, chipMint  = key(), key(), key()
		chipATA, tokenATA, recipient        = key(), key(), key()
		rewards                             = key()
	)

	tests := []struct {
		name  string
		build func() (*solana.GenericInstruction, error)
		want  []flag
	}{
		{
			name: "add_token",
			build: func() (*solana.GenericInstruction, error) {
				return NewAddTokenInstruction(AddTokenAccounts{
					ChipTokenPriceState: priceState, Treasury: treasury, TreasuryTokenAccount: treasuryATA,
					Signer: signer, PaymentTokenMint: mint,
				}, 7)
			},
			want: []flag{
				{priceState, true, false},
				{treasury, true, false},
				{treasuryATA, true, false},
				{signer, true, true},
				{mint, false, false},
				{Token2022ProgramID, false, false},
				{AssociatedTokenProgramID, false, false},
				{SystemProgramID, false, false},
			},
		},
		{
			name: "buy_chip",
			build: func() (*solana.GenericInstruction, error) {
				return NewBuyChipInstruction(BuyChipAccounts{
					ChipTokenPriceState: priceState, Treasury: treasury, TreasuryTokenAccount: treasuryATA,
					Buyer: signer, ChipMint: chipMint, BuyerChipAccount: chipATA,
					BuyerTokenAccount: tokenATA, PaymentTokenMint: mint,
				}, 7)
			},
			want: []flag{
				{priceState, false, false},
				{treasury, true, false},
				{treasuryATA, true, false},
				{signer, true, true},
				{chipMint, true, false},
				{chipATA, true, false},
				{tokenATA, true, false},
				{mint, false, false},
				{Token2022ProgramID, false, false},
				{AssociatedTokenProgramID, false, false},
				{SystemProgramID, false, false},
			},
		},
		{
			name: "init_global_config",
			build: func() (*solana.GenericInstruction, error) {
				return NewInitGlobalConfigInstruction(InitGlobalConfigAccounts{Signer: signer, GlobalConfig: globalConfig}, 7)
			},
			want: []flag{
				{signer, true, true},
				{globalConfig, true, false},
				{SystemProgramID, false, false},
			},
		},
		{
			name: "initialize",
			build: func() (*solana.GenericInstruction, error) {
				return NewInitializeInstruction(InitializeAccounts{ChipMint: chipMint, Treasury: treasury, Signer: signer})
			},
			want: []flag{
				{chipMint, true, false},
				{treasury, true, false},
				{signer, true, true},
				{Token2022ProgramID, false, false},
				{SystemProgramID, false, false},
			},
		},
		{
			name: "update_chip_token_price",
			build: func() (*solana.GenericInstruction, error) {
				return NewUpdateChipTokenPriceInstruction(UpdateChipTokenPriceAccounts{
					ChipTokenPriceState: priceState, Signer: signer, TokenMint: mint,
				}, 7)
			},
			want: []flag{
				{priceState, true, false},
				{signer, true, true},
				{mint, false, false},
			},
		},
		{
			name: "reserve_chips",
			build: func() (*solana.GenericInstruction, error) {
				return NewReserveChipsInstruction(ReserveChipsAccounts{Signer: signer, ChipMint: chipMint, UserChipAccount: chipATA}, 7)
			},
			want: []flag{
				{signer, true, true},
				{chipMint, true, false},
				{chipATA, true, false},
				{Token2022ProgramID, false, false},
			},
		},
		{
			name: "set_claimable_rewards",
			build: func() (*solana.GenericInstruction, error) {
				return NewSetClaimableRewardsInstruction(SetClaimableRewardsAccounts{
					Signer: signer, GlobalConfig: globalConfig, Recipient: recipient, ClaimableRewards: rewards,
				}, 7)
			},
			want: []flag{
				{signer, true, true},
				{globalConfig, false, false},
				{recipient, false, false},
				{rewards, true, false},
				{SystemProgramID, false, false},
			},
		},
		{
			name: "claim_chips",
			build: func() (*solana.GenericInstruction, error) {
				return NewClaimChipsInstruction(ClaimChipsAccounts{
					Claimant: signer, ClaimableRewards: rewards, Treasury: treasury,
					ChipMint: chipMint, ClaimantChipAccount: chipATA,
				})
			},
			want: []flag{
				{signer, true, true},
				{rewards, true, false},
				{treasury, true, false},
				{chipMint, true, false},
				{chipATA, true, false},
				{Token2022ProgramID, false, false},
				{AssociatedTokenProgramID, false, false},
				{SystemProgramID, false, false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, ProgramID, ix.ProgramID())
			assertMetas(t, ix, tt.want)

			data, err := ix.Data()
			require.NoError(t, err)
			decoded, err := DecodeInstructionData(data)
			require.NoError(t, err)
			assert.Equal(t, tt.name, decoded.Kind.String())

			// Same inputs, same bytes.
			again, err := tt.build()
			require.NoError(t, err)
			againData, err := again.Data()
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, againData))
		})
	}
}

func TestInstructionAmountBounds(t *testing.T) {
	accounts := BuyChipWithSolAccounts{
		Buyer: key(), GlobalConfig: key(), Treasury: key(), ChipMint: key(), BuyerChipAccount: key(),
	}
	for _, amount := range []uint64{0, 1, math.MaxUint64} {
		ix, err := NewBuyChipWithSolInstruction(accounts, amount)
		require.NoError(t, err)
		data, err := ix.Data()
		require.NoError(t, err)
		require.Len(t, data, DiscriminatorSize+8)

		decoded, err := DecodeInstructionData(data)
		require.NoError(t, err)
		assert.Equal(t, amount, decoded.Amount)
	}

	ix, err := NewSellChipUnverifiedInstruction(math.MaxUint64, solana.PublicKey{})
	require.NoError(t, err)
	data, err := ix.Data()
	require.NoError(t, err)
	decoded, err := DecodeInstructionData(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), decoded.Amount)
	assert.True(t, decoded.ReceiveToken.IsZero())
}
