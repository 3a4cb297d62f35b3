// =============================
// File: internal/dex/solstrike/pda.go
// =============================
package solstrike

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// FindProgramAddress returns the canonical PDA for seeds under programID:
// the first bump, counting down from 255, that lands off the curve.
func FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("find program address: %w", err)
	}
	return addr, bump, nil
}

// Deriver computes every program-derived address the client needs.
type Deriver struct {
	programID solana.PublicKey
	seeds     Seeds
}

// NewDeriver returns a deriver for programID. A zero programID selects the
// compiled-in deployment and empty seeds fall back to the defaults.
func NewDeriver(programID solana.PublicKey, seeds Seeds) *Deriver {
	if programID.IsZero() {
		programID = ProgramID
	}
	return &Deriver{programID: programID, seeds: seeds.Resolve()}
}

// ProgramID is the program the deriver derives under.
func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *Deriver) find(seeds ...[]byte) (solana.PublicKey, uint8, error) {
	return FindProgramAddress(seeds, d.programID)
}

// ChipMint is the Token-2022 mint of the chip.
func (d *Deriver) ChipMint() (solana.PublicKey, uint8, error) {
	return d.find(d.seeds.ChipMint)
}

func (d *Deriver) Treasury() (solana.PublicKey, uint8, error) {
	return d.find(d.seeds.Treasury)
}

func (d *Deriver) GlobalConfig() (solana.PublicKey, uint8, error) {
	return d.find(d.seeds.GlobalConfig)
}

// ChipTokenPriceState is the price record of one payment token mint.
func (d *Deriver) ChipTokenPriceState(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.find(d.seeds.ChipTokenPrice, mint.Bytes())
}

// ClaimableRewards is the reward record of one authority.
func (d *Deriver) ClaimableRewards(authority solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.find(d.seeds.ClaimableRewards, authority.Bytes())
}

// AssociatedTokenAddress derives the associated token account of owner for
// mint under tokenProgram. solana.FindAssociatedTokenAddress only knows the
// classic token program; the chip mint lives under Token-2022.
func AssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if tokenProgram.IsZero() {
		tokenProgram = Token2022ProgramID
	}
	addr, _, err := FindProgramAddress([][]byte{
		owner.Bytes(),
		tokenProgram.Bytes(),
		mint.Bytes(),
	}, AssociatedTokenProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("associated token address: %w", err)
	}
	return addr, nil
}

// VerifyBump compares a derived bump with the one stored in the record.
func VerifyBump(kind AccountKind, address solana.PublicKey, derived, onChain uint8) error {
	if derived == onChain {
		return nil
	}
	return &DerivationDriftError{
		Kind:        kind,
		Address:     address,
		DerivedBump: derived,
		OnChainBump: onChain,
	}
}

// Addresses is the resolved set of singleton PDAs.
type Addresses struct {
	ChipMint         solana.PublicKey
	ChipMintBump     uint8
	Treasury         solana.PublicKey
	TreasuryBump     uint8
	GlobalConfig     solana.PublicKey
	GlobalConfigBump uint8
}

// Singletons derives the chip mint, treasury and global config addresses.
func (d *Deriver) Singletons() (*Addresses, error) {
	var (
		out Addresses
		err error
	)
	if out.ChipMint, out.ChipMintBump, err = d.ChipMint(); err != nil {
		return nil, fmt.Errorf("chip mint: %w", err)
	}
	if out.Treasury, out.TreasuryBump, err = d.Treasury(); err != nil {
		return nil, fmt.Errorf("treasury: %w", err)
	}
	if out.GlobalConfig, out.GlobalConfigBump, err = d.GlobalConfig(); err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	return &out, nil
}
