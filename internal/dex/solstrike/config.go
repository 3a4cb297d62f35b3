// =============================
// File: internal/dex/solstrike/config.go
// =============================
package solstrike

import (
	"github.com/gagliardetto/solana-go"
)

// ProgramIDBase58 is the deployed sol_strike program.
const ProgramIDBase58 = "3FFYCYGMqkjjpxMvGXu5XiRnZQtGJMN9r73Hh1yiBVjH"

// Known program addresses. These are immutable values; per-call overrides go
// through ProgramAddresses and WithProgramID.
var (
	ProgramID = solana.MustPublicKeyFromBase58(ProgramIDBase58)

	SystemProgramID          = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	AssociatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	TokenProgramID           = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID       = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// ProgramAddresses names every well-known program an instruction may need.
// Zero fields fall back to the compiled-in defaults when Resolve is called,
// which happens at encode time.
//
// The chip mint is a Token-2022 mint, so TokenProgram defaults to Token-2022.
// Instructions that move a classic SPL payment token must set it explicitly.
type ProgramAddresses struct {
	TokenProgram           solana.PublicKey
	AssociatedTokenProgram solana.PublicKey
	SystemProgram          solana.PublicKey
}

// DefaultProgramAddresses returns the compiled-in defaults.
func DefaultProgramAddresses() ProgramAddresses {
	return ProgramAddresses{
		TokenProgram:           Token2022ProgramID,
		AssociatedTokenProgram: AssociatedTokenProgramID,
		SystemProgram:          SystemProgramID,
	}
}

// Resolve returns a copy with every zero field replaced by its default.
func (p ProgramAddresses) Resolve() ProgramAddresses {
	def := DefaultProgramAddresses()
	if p.TokenProgram.IsZero() {
		p.TokenProgram = def.TokenProgram
	}
	if p.AssociatedTokenProgram.IsZero() {
		p.AssociatedTokenProgram = def.AssociatedTokenProgram
	}
	if p.SystemProgram.IsZero() {
		p.SystemProgram = def.SystemProgram
	}
	return p
}

// Seeds holds the fixed seed prefixes used by the program's PDAs.
type Seeds struct {
	ChipMint         []byte
	Treasury         []byte
	GlobalConfig     []byte
	ChipTokenPrice   []byte
	ClaimableRewards []byte
}

// DefaultSeeds returns the seed prefixes of the deployed program.
func DefaultSeeds() Seeds {
	return Seeds{
		ChipMint:         []byte("CHIP_MINT"),
		Treasury:         []byte("TREASURY"),
		GlobalConfig:     []byte("GLOBAL_CONFIG"),
		ChipTokenPrice:   []byte("CHIP_TOKEN_PRICE"),
		ClaimableRewards: []byte("CLAIMABLE_REWARDS"),
	}
}

// Resolve fills empty prefixes with the defaults.
func (s Seeds) Resolve() Seeds {
	def := DefaultSeeds()
	if len(s.ChipMint) == 0 {
		s.ChipMint = def.ChipMint
	}
	if len(s.Treasury) == 0 {
		s.Treasury = def.Treasury
	}
	if len(s.GlobalConfig) == 0 {
		s.GlobalConfig = def.GlobalConfig
	}
	if len(s.ChipTokenPrice) == 0 {
		s.ChipTokenPrice = def.ChipTokenPrice
	}
	if len(s.ClaimableRewards) == 0 {
		s.ClaimableRewards = def.ClaimableRewards
	}
	return s
}

type options struct {
	programID solana.PublicKey
}

// Option customises a single encode call.
type Option func(*options)

// WithProgramID targets an alternate deployment of the program.
func WithProgramID(id solana.PublicKey) Option {
	return func(o *options) {
		o.programID = id
	}
}

func buildOptions(opts []Option) options {
	o := options{programID: ProgramID}
	for _, opt := range opts {
		opt(&o)
	}
	if o.programID.IsZero() {
		o.programID = ProgramID
	}
	return o
}
