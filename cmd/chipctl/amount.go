package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var errBadAmount = errors.New("invalid amount")

// parseSOL converts a decimal SOL amount ("1.5", "0.000000001") into
// lamports without going through floating point.
func parseSOL(s string) (uint64, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", errBadAmount, s)
	}
	if len(frac) > 9 {
		return 0, fmt.Errorf("%w: %q has more than 9 decimals", errBadAmount, s)
	}

	var w uint64
	if whole != "" {
		var err error
		if w, err = strconv.ParseUint(whole, 10, 64); err != nil {
			return 0, fmt.Errorf("%w: %q", errBadAmount, s)
		}
	}
	var f uint64
	if frac != "" {
		var err error
		if f, err = strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64); err != nil {
			return 0, fmt.Errorf("%w: %q", errBadAmount, s)
		}
	}
	if w > (math.MaxUint64-f)/solana.LAMPORTS_PER_SOL {
		return 0, fmt.Errorf("%w: %q overflows lamports", errBadAmount, s)
	}
	return w*solana.LAMPORTS_PER_SOL + f, nil
}

func parseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errBadAmount, s)
	}
	return v, nil
}

func formatSOL(lamports uint64) string {
	return fmt.Sprintf("%d.%09d SOL", lamports/solana.LAMPORTS_PER_SOL, lamports%solana.LAMPORTS_PER_SOL)
}
