package economy

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

func TestPinRoundingRule(t *testing.T) {
	// Exact division leaves every rule in play.
	rules, err := PinRoundingRule(BuyObservation{Supplied: 17_000_000_000, Price: 10_000_000, ChipDelta: 1700})
	require.NoError(t, err)
	assert.ElementsMatch(t, AllRoundingRules(), rules)

	// 1.2 chips bought as 1 excludes ceil; 1.6 bought as 1 excludes nearest.
	rules, err = PinRoundingRule(
		BuyObservation{Supplied: 12_000_000, Price: 10_000_000, ChipDelta: 1},
		BuyObservation{Supplied: 16_000_000, Price: 10_000_000, ChipDelta: 1},
	)
	require.NoError(t, err)
	assert.Equal(t, []RoundingRule{RoundFloor}, rules)

	_, err = PinRoundingRule(BuyObservation{Supplied: 10_000_000, Price: 10_000_000, ChipDelta: 5})
	assert.ErrorIs(t, err, ErrNoConsistentRule)

	_, err = PinRoundingRule()
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestCheckBuyInvariant(t *testing.T) {
	obs := BuyObservation{Supplied: 17_000_000_000, Price: 10_000_000, ChipDelta: 1700}
	assert.NoError(t, CheckBuyInvariant(obs, RoundFloor))

	obs.ChipDelta = 1699
	assert.ErrorIs(t, CheckBuyInvariant(obs, RoundFloor), ErrInvariantViolated)

	obs.Price = 0
	assert.ErrorIs(t, CheckBuyInvariant(obs, RoundFloor), ErrZeroPrice)
}

func tokenBalance(owner, mint solana.PublicKey, amount string, decimals uint8) rpc.TokenBalance {
	return rpc.TokenBalance{
		Owner:         &owner,
		Mint:          mint,
		UiTokenAmount: &rpc.UiTokenAmount{Amount: amount, Decimals: decimals},
	}
}

func TestObserveBuy(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	meta := &rpc.TransactionMeta{
		PreTokenBalances: []rpc.TokenBalance{
			tokenBalance(owner, mint, "300", 0),
			tokenBalance(other, mint, "5", 0),
		},
		PostTokenBalances: []rpc.TokenBalance{
			tokenBalance(other, mint, "5", 0),
			tokenBalance(owner, mint, "2000", 0),
		},
	}

	obs, err := ObserveBuy(meta, owner, mint, 17_000_000_000, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1700), obs.ChipDelta)
	assert.NoError(t, CheckBuyInvariant(*obs, RoundFloor))

	t.Run("fresh chip account", func(t *testing.T) {
		meta := &rpc.TransactionMeta{
			PostTokenBalances: []rpc.TokenBalance{tokenBalance(owner, mint, "1700", 0)},
		}
		obs, err := ObserveBuy(meta, owner, mint, 17_000_000_000, 10_000_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(1700), obs.ChipDelta)
	})

	t.Run("missing balance", func(t *testing.T) {
		_, err := ObserveBuy(&rpc.TransactionMeta{}, owner, mint, 1, 1)
		assert.ErrorIs(t, err, ErrBalanceNotFound)
	})

	t.Run("balance fell", func(t *testing.T) {
		meta := &rpc.TransactionMeta{
			PreTokenBalances:  []rpc.TokenBalance{tokenBalance(owner, mint, "10", 0)},
			PostTokenBalances: []rpc.TokenBalance{tokenBalance(owner, mint, "9", 0)},
		}
		_, err := ObserveBuy(meta, owner, mint, 1, 1)
		assert.ErrorIs(t, err, ErrInvariantViolated)
	})
}

func TestCheckPriceUpdate(t *testing.T) {
	before := &solstrike.GlobalConfig{SolChipPrice: 10_000_000, Bump: 254}

	after := &solstrike.GlobalConfig{SolChipPrice: 20_000_000, Bump: 254}
	assert.NoError(t, CheckPriceUpdate(before, after, 20_000_000))

	assert.ErrorIs(t, CheckPriceUpdate(before, after, 30_000_000), ErrInvariantViolated)

	after.Bump = 253
	assert.ErrorIs(t, CheckPriceUpdate(before, after, 20_000_000), ErrInvariantViolated)

	assert.ErrorIs(t, CheckPriceUpdate(nil, after, 20_000_000), ErrInvariantViolated)
}

func TestCheckTokenPriceUpdate(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	before := &solstrike.ChipTokenPriceState{TokenAddress: mint, TokenPrice: 1_000, Bump: 251}

	after := *before
	after.TokenPrice = 2_000
	assert.NoError(t, CheckTokenPriceUpdate(before, &after, 2_000))

	after.TokenAddress = solana.NewWallet().PublicKey()
	assert.ErrorIs(t, CheckTokenPriceUpdate(before, &after, 2_000), ErrInvariantViolated)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ValidateGlobalConfig(&solstrike.GlobalConfig{SolChipPrice: 10_000_000}))
	assert.ErrorIs(t, ValidateGlobalConfig(&solstrike.GlobalConfig{}), ErrInvariantViolated)
	assert.ErrorIs(t, ValidateGlobalConfig(nil), ErrInvariantViolated)

	mint := solana.NewWallet().PublicKey()
	state := &solstrike.ChipTokenPriceState{TokenAddress: mint, TokenPrice: 5}
	assert.NoError(t, ValidateTokenPriceState(state, mint))
	assert.ErrorIs(t, ValidateTokenPriceState(state, solana.NewWallet().PublicKey()), ErrInvariantViolated)

	state.TokenPrice = 0
	assert.ErrorIs(t, ValidateTokenPriceState(state, mint), ErrInvariantViolated)
}
