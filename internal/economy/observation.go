// internal/economy/observation.go
package economy

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

var (
	// ErrInvariantViolated means observed ledger state contradicts the
	// economic model.
	ErrInvariantViolated = errors.New("economic invariant violated")

	ErrNoObservations   = errors.New("no observations")
	ErrNoConsistentRule = errors.New("no rounding rule matches every observation")
	ErrBalanceNotFound  = errors.New("chip balance not found in transaction meta")
)

// BuyObservation is one landed buy: what was supplied, at which price, and
// the chip balance change it produced.
type BuyObservation struct {
	Supplied     uint64 // lamports or token base units
	Price        uint64 // per whole chip
	ChipDelta    uint64 // chip base units
	ChipDecimals uint8
}

// PinRoundingRule returns every rule that reproduces all observations.
func PinRoundingRule(obs ...BuyObservation) ([]RoundingRule, error) {
	if len(obs) == 0 {
		return nil, ErrNoObservations
	}

	var out []RoundingRule
	for _, rule := range AllRoundingRules() {
		if consistent(rule, obs) {
			out = append(out, rule)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoConsistentRule
	}
	return out, nil
}

func consistent(rule RoundingRule, obs []BuyObservation) bool {
	for _, o := range obs {
		if CheckBuyInvariant(o, rule) != nil {
			return false
		}
	}
	return true
}

// CheckBuyInvariant verifies that the observed chip delta is what rule
// predicts for the supplied amount and price.
func CheckBuyInvariant(o BuyObservation, rule RoundingRule) error {
	p := Pricing{Rule: rule, ChipDecimals: o.ChipDecimals}
	want, err := p.ChipsForLamports(o.Supplied, o.Price)
	if err != nil {
		return err
	}
	if want != o.ChipDelta {
		return fmt.Errorf("%w: supplied %d at price %d gives %d chips under %s, observed %d",
			ErrInvariantViolated, o.Supplied, o.Price, want, rule, o.ChipDelta)
	}
	return nil
}

// ObserveBuy extracts a BuyObservation from the meta of a landed buy
// transaction, using the chip balance of owner before and after.
func ObserveBuy(meta *rpc.TransactionMeta, owner, chipMint solana.PublicKey, supplied, price uint64) (*BuyObservation, error) {
	if meta == nil {
		return nil, fmt.Errorf("%w: empty meta", ErrBalanceNotFound)
	}
	if meta.Err != nil {
		return nil, fmt.Errorf("transaction failed: %v", meta.Err)
	}

	post, decimals, ok, err := chipBalance(meta.PostTokenBalances, owner, chipMint)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: owner %s mint %s", ErrBalanceNotFound, owner, chipMint)
	}
	// A missing pre balance means the chip account was created by this transaction.
	pre, _, _, err := chipBalance(meta.PreTokenBalances, owner, chipMint)
	if err != nil {
		return nil, err
	}
	if post < pre {
		return nil, fmt.Errorf("%w: chip balance fell from %d to %d", ErrInvariantViolated, pre, post)
	}

	return &BuyObservation{
		Supplied:     supplied,
		Price:        price,
		ChipDelta:    post - pre,
		ChipDecimals: decimals,
	}, nil
}

func chipBalance(balances []rpc.TokenBalance, owner, mint solana.PublicKey) (uint64, uint8, bool, error) {
	for _, b := range balances {
		if b.Owner == nil || !b.Owner.Equals(owner) || !b.Mint.Equals(mint) || b.UiTokenAmount == nil {
			continue
		}
		amount, err := strconv.ParseUint(b.UiTokenAmount.Amount, 10, 64)
		if err != nil {
			return 0, 0, false, fmt.Errorf("parse token amount %q: %w", b.UiTokenAmount.Amount, err)
		}
		return amount, b.UiTokenAmount.Decimals, true, nil
	}
	return 0, 0, false, nil
}

// CheckPriceUpdate verifies that update_sol_chip_price changed the price and
// nothing else.
func CheckPriceUpdate(before, after *solstrike.GlobalConfig, newPrice uint64) error {
	if before == nil || after == nil {
		return fmt.Errorf("%w: missing global config", ErrInvariantViolated)
	}
	if after.SolChipPrice != newPrice {
		return fmt.Errorf("%w: sol chip price is %d, want %d", ErrInvariantViolated, after.SolChipPrice, newPrice)
	}
	if after.Bump != before.Bump {
		return fmt.Errorf("%w: bump changed from %d to %d", ErrInvariantViolated, before.Bump, after.Bump)
	}
	return nil
}

// CheckTokenPriceUpdate is CheckPriceUpdate for a token price record.
func CheckTokenPriceUpdate(before, after *solstrike.ChipTokenPriceState, newPrice uint64) error {
	if before == nil || after == nil {
		return fmt.Errorf("%w: missing token price state", ErrInvariantViolated)
	}
	if after.TokenPrice != newPrice {
		return fmt.Errorf("%w: token price is %d, want %d", ErrInvariantViolated, after.TokenPrice, newPrice)
	}
	if !after.TokenAddress.Equals(before.TokenAddress) {
		return fmt.Errorf("%w: token changed from %s to %s", ErrInvariantViolated, before.TokenAddress, after.TokenAddress)
	}
	if after.Bump != before.Bump {
		return fmt.Errorf("%w: bump changed from %d to %d", ErrInvariantViolated, before.Bump, after.Bump)
	}
	return nil
}

// ValidateGlobalConfig rejects a configuration nobody can buy against.
func ValidateGlobalConfig(cfg *solstrike.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: missing global config", ErrInvariantViolated)
	}
	if cfg.SolChipPrice == 0 {
		return fmt.Errorf("%w: sol chip price is zero", ErrInvariantViolated)
	}
	return nil
}

// ValidateTokenPriceState checks that the record prices mint.
func ValidateTokenPriceState(state *solstrike.ChipTokenPriceState, mint solana.PublicKey) error {
	if state == nil {
		return fmt.Errorf("%w: missing token price state", ErrInvariantViolated)
	}
	if !state.TokenAddress.Equals(mint) {
		return fmt.Errorf("%w: record prices %s, not %s", ErrInvariantViolated, state.TokenAddress, mint)
	}
	if state.TokenPrice == 0 {
		return fmt.Errorf("%w: token price is zero", ErrInvariantViolated)
	}
	return nil
}
