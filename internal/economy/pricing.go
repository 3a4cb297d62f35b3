// internal/economy/pricing.go
package economy

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var (
	ErrZeroPrice = errors.New("price is zero")
	ErrOverflow  = errors.New("arithmetic overflow")
)

// RoundingRule is how the program turns a fractional chip quantity into an
// integer. The rule is a property of the deployed program; pin it with
// PinRoundingRule instead of assuming one.
type RoundingRule uint8

const (
	RoundFloor RoundingRule = iota
	RoundCeil
	RoundNearest // half away from zero
)

// AllRoundingRules lists the candidate rules.
func AllRoundingRules() []RoundingRule {
	return []RoundingRule{RoundFloor, RoundCeil, RoundNearest}
}

func (r RoundingRule) String() string {
	switch r {
	case RoundFloor:
		return "floor"
	case RoundCeil:
		return "ceil"
	case RoundNearest:
		return "nearest"
	}
	return fmt.Sprintf("RoundingRule(%d)", uint8(r))
}

// ParseRoundingRule accepts floor, ceil and nearest.
func ParseRoundingRule(s string) (RoundingRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "floor", "":
		return RoundFloor, nil
	case "ceil":
		return RoundCeil, nil
	case "nearest", "round":
		return RoundNearest, nil
	}
	return 0, fmt.Errorf("unknown rounding rule %q", s)
}

// mulDiv computes a*b/den with a 128-bit intermediate and applies rule to
// the remainder.
func mulDiv(a, b, den uint64, rule RoundingRule) (uint64, error) {
	if den == 0 {
		return 0, ErrZeroPrice
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrOverflow
	}
	q, rem := bits.Div64(hi, lo, den)
	if rem == 0 {
		return q, nil
	}

	roundUp := false
	switch rule {
	case RoundCeil:
		roundUp = true
	case RoundNearest:
		// rem >= den - rem, written without overflowing 2*rem
		roundUp = rem >= den-rem
	}
	if roundUp {
		if q == ^uint64(0) {
			return 0, ErrOverflow
		}
		q++
	}
	return q, nil
}

func pow10(decimals uint8) (uint64, error) {
	if decimals > 19 {
		return 0, fmt.Errorf("%w: 10^%d", ErrOverflow, decimals)
	}
	v := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		v *= 10
	}
	return v, nil
}

// Pricing converts between payment amounts and chip base units. ChipDecimals
// is the decimals of the chip mint; prices are quoted per whole chip.
type Pricing struct {
	Rule         RoundingRule
	ChipDecimals uint8
}

// ChipsForLamports is the chip quantity, in chip base units, bought for
// lamports at solChipPrice lamports per chip.
func (p Pricing) ChipsForLamports(lamports, solChipPrice uint64) (uint64, error) {
	unit, err := pow10(p.ChipDecimals)
	if err != nil {
		return 0, err
	}
	return mulDiv(lamports, unit, solChipPrice, p.Rule)
}

// LamportsForChips quotes the cost of chips base units. The quote always
// rounds up so that it is enough to pay for the quantity.
func (p Pricing) LamportsForChips(chips, solChipPrice uint64) (uint64, error) {
	if solChipPrice == 0 {
		return 0, ErrZeroPrice
	}
	unit, err := pow10(p.ChipDecimals)
	if err != nil {
		return 0, err
	}
	return mulDiv(chips, solChipPrice, unit, RoundCeil)
}

// ChipsForTokens is the chip quantity bought for amount token base units at
// tokenPrice base units per chip.
func (p Pricing) ChipsForTokens(amount, tokenPrice uint64) (uint64, error) {
	return p.ChipsForLamports(amount, tokenPrice)
}

// TokensForChips is the token amount paid or received for chips, rounded
// with the pricing rule.
func (p Pricing) TokensForChips(chips, tokenPrice uint64) (uint64, error) {
	if tokenPrice == 0 {
		return 0, ErrZeroPrice
	}
	unit, err := pow10(p.ChipDecimals)
	if err != nil {
		return 0, err
	}
	return mulDiv(chips, tokenPrice, unit, p.Rule)
}
