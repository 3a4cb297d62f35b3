// ==============================================
// File: internal/dex/solstrike/instructions.go
// ==============================================
package solstrike

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	bin "github.com/rovshanmuradov/solstrike-client/internal/utils/binary"
)

// MaxInstructionDataSize is the scratch size handed to every encoder. Only
// the written prefix ends up in the instruction.
const MaxInstructionDataSize = 1200

// AddTokenAccounts lists the accounts of add_token.
type AddTokenAccounts struct {
	ChipTokenPriceState  solana.PublicKey
	Treasury             solana.PublicKey
	TreasuryTokenAccount solana.PublicKey
	Signer               solana.PublicKey
	PaymentTokenMint     solana.PublicKey
	Programs             ProgramAddresses
}

type BuyChipAccounts struct {
	ChipTokenPriceState  solana.PublicKey
	Treasury             solana.PublicKey
	TreasuryTokenAccount solana.PublicKey
	Buyer                solana.PublicKey
	ChipMint             solana.PublicKey
	BuyerChipAccount     solana.PublicKey
	BuyerTokenAccount    solana.PublicKey
	PaymentTokenMint     solana.PublicKey
	Programs             ProgramAddresses
}

type BuyChipWithSolAccounts struct {
	Buyer            solana.PublicKey
	GlobalConfig     solana.PublicKey
	Treasury         solana.PublicKey
	ChipMint         solana.PublicKey
	BuyerChipAccount solana.PublicKey
	Programs         ProgramAddresses
}

type InitGlobalConfigAccounts struct {
	Signer       solana.PublicKey
	GlobalConfig solana.PublicKey
	Programs     ProgramAddresses
}

type InitializeAccounts struct {
	ChipMint solana.PublicKey
	Treasury solana.PublicKey
	Signer   solana.PublicKey
	Programs ProgramAddresses
}

type UpdateChipTokenPriceAccounts struct {
	ChipTokenPriceState solana.PublicKey
	Signer              solana.PublicKey
	TokenMint           solana.PublicKey
}

type UpdateSolChipPriceAccounts struct {
	GlobalConfig solana.PublicKey
	Signer       solana.PublicKey
}

// ReserveChipsAccounts follows the account names used by the deployment
// scripts.
type ReserveChipsAccounts struct {
	Signer          solana.PublicKey
	ChipMint        solana.PublicKey
	UserChipAccount solana.PublicKey
	Programs        ProgramAddresses
}

type SetClaimableRewardsAccounts struct {
	Signer           solana.PublicKey
	GlobalConfig     solana.PublicKey
	Recipient        solana.PublicKey
	ClaimableRewards solana.PublicKey
	Programs         ProgramAddresses
}

type ClaimChipsAccounts struct {
	Claimant            solana.PublicKey
	ClaimableRewards    solana.PublicKey
	Treasury            solana.PublicKey
	ChipMint            solana.PublicKey
	ClaimantChipAccount solana.PublicKey
	Programs            ProgramAddresses
}

type named struct {
	name string
	key  solana.PublicKey
}

func requireAccounts(kind InstructionKind, accounts ...named) error {
	for _, a := range accounts {
		if a.key.IsZero() {
			return fmt.Errorf("%w: %s requires %s", ErrMissingAccount, kind, a.name)
		}
	}
	return nil
}

func meta(key solana.PublicKey, writable, signer bool) *solana.AccountMeta {
	return &solana.AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}

func build(kind InstructionKind, metas []*solana.AccountMeta, args func(w *bin.Writer), opts []Option) (*solana.GenericInstruction, error) {
	o := buildOptions(opts)

	w := bin.NewWriter(MaxInstructionDataSize)
	w.Raw(kind.Discriminator().Bytes())
	if args != nil {
		args(w)
	}
	data, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	if metas == nil {
		metas = []*solana.AccountMeta{}
	}
	return solana.NewInstruction(o.programID, metas, data), nil
}

func u64Arg(v uint64) func(w *bin.Writer) {
	return func(w *bin.Writer) { w.Uint64(v) }
}

// NewAddTokenInstruction registers a payment token at tokenPrice base units per chip.
func NewAddTokenInstruction(accounts AddTokenAccounts, tokenPrice uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindAddToken
	if err := requireAccounts(kind,
		named{"chip_token_price_state", accounts.ChipTokenPriceState},
		named{"treasury", accounts.Treasury},
		named{"treasury_token_account", accounts.TreasuryTokenAccount},
		named{"signer", accounts.Signer},
		named{"payment_token_mint", accounts.PaymentTokenMint},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.ChipTokenPriceState, true, false),
		meta(accounts.Treasury, true, false),
		meta(accounts.TreasuryTokenAccount, true, false),
		meta(accounts.Signer, true, true),
		meta(accounts.PaymentTokenMint, false, false),
		meta(p.TokenProgram, false, false),
		meta(p.AssociatedTokenProgram, false, false),
		meta(p.SystemProgram, false, false),
	}, u64Arg(tokenPrice), opts)
}

// NewBuyChipInstruction buys chips with an SPL payment token.
func NewBuyChipInstruction(accounts BuyChipAccounts, amount uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindBuyChip
	if err := requireAccounts(kind,
		named{"chip_token_price_state", accounts.ChipTokenPriceState},
		named{"treasury", accounts.Treasury},
		named{"treasury_token_account", accounts.TreasuryTokenAccount},
		named{"buyer", accounts.Buyer},
		named{"chip_mint", accounts.ChipMint},
		named{"buyer_chip_account", accounts.BuyerChipAccount},
		named{"buyer_token_account", accounts.BuyerTokenAccount},
		named{"payment_token_mint", accounts.PaymentTokenMint},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.ChipTokenPriceState, false, false),
		meta(accounts.Treasury, true, false),
		meta(accounts.TreasuryTokenAccount, true, false),
		meta(accounts.Buyer, true, true),
		meta(accounts.ChipMint, true, false),
		meta(accounts.BuyerChipAccount, true, false),
		meta(accounts.BuyerTokenAccount, true, false),
		meta(accounts.PaymentTokenMint, false, false),
		meta(p.TokenProgram, false, false),
		meta(p.AssociatedTokenProgram, false, false),
		meta(p.SystemProgram, false, false),
	}, u64Arg(amount), opts)
}

// NewBuyChipWithSolInstruction buys chips for amount lamports.
func NewBuyChipWithSolInstruction(accounts BuyChipWithSolAccounts, amount uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindBuyChipWithSol
	if err := requireAccounts(kind,
		named{"buyer", accounts.Buyer},
		named{"global_config", accounts.GlobalConfig},
		named{"treasury", accounts.Treasury},
		named{"chip_mint", accounts.ChipMint},
		named{"buyer_chip_account", accounts.BuyerChipAccount},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.Buyer, true, true),
		meta(accounts.GlobalConfig, false, false),
		meta(accounts.Treasury, true, false),
		meta(accounts.ChipMint, true, false),
		meta(accounts.BuyerChipAccount, true, false),
		meta(p.TokenProgram, false, false),
		meta(p.AssociatedTokenProgram, false, false),
		meta(p.SystemProgram, false, false),
	}, u64Arg(amount), opts)
}

// NewInitGlobalConfigInstruction creates the GlobalConfig singleton.
func NewInitGlobalConfigInstruction(accounts InitGlobalConfigAccounts, chipPrice uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindInitGlobalConfig
	if err := requireAccounts(kind,
		named{"signer", accounts.Signer},
		named{"global_config", accounts.GlobalConfig},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.Signer, true, true),
		meta(accounts.GlobalConfig, true, false),
		meta(p.SystemProgram, false, false),
	}, u64Arg(chipPrice), opts)
}

// NewInitializeInstruction creates the chip mint and the treasury.
func NewInitializeInstruction(accounts InitializeAccounts, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindInitialize
	if err := requireAccounts(kind,
		named{"chip_mint", accounts.ChipMint},
		named{"treasury", accounts.Treasury},
		named{"signer", accounts.Signer},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.ChipMint, true, false),
		meta(accounts.Treasury, true, false),
		meta(accounts.Signer, true, true),
		meta(p.TokenProgram, false, false),
		meta(p.SystemProgram, false, false),
	}, nil, opts)
}

// NewSellChipUnverifiedInstruction encodes sell_chip as published. The
// published interface declares no accounts, so the program cannot move any
// funds with this instruction. Do not rely on it until the account list is
// confirmed against a deployment.
func NewSellChipUnverifiedInstruction(amount uint64, receiveToken solana.PublicKey, opts ...Option) (*solana.GenericInstruction, error) {
	return build(InstructionKindSellChip, nil, func(w *bin.Writer) {
		w.Uint64(amount).Key32(receiveToken)
	}, opts)
}

// NewUpdateChipTokenPriceInstruction changes the token price of one mint.
func NewUpdateChipTokenPriceInstruction(accounts UpdateChipTokenPriceAccounts, newTokenPrice uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindUpdateChipTokenPrice
	if err := requireAccounts(kind,
		named{"chip_token_price_state", accounts.ChipTokenPriceState},
		named{"signer", accounts.Signer},
		named{"token_mint", accounts.TokenMint},
	); err != nil {
		return nil, err
	}
	return build(kind, []*solana.AccountMeta{
		meta(accounts.ChipTokenPriceState, true, false),
		meta(accounts.Signer, true, true),
		meta(accounts.TokenMint, false, false),
	}, u64Arg(newTokenPrice), opts)
}

// NewUpdateSolChipPriceInstruction changes the SOL price of a chip. The
// signer is read-only here, unlike every other instruction.
func NewUpdateSolChipPriceInstruction(accounts UpdateSolChipPriceAccounts, newPrice uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindUpdateSolChipPrice
	if err := requireAccounts(kind,
		named{"global_config", accounts.GlobalConfig},
		named{"signer", accounts.Signer},
	); err != nil {
		return nil, err
	}
	return build(kind, []*solana.AccountMeta{
		meta(accounts.GlobalConfig, true, false),
		meta(accounts.Signer, false, true),
	}, u64Arg(newPrice), opts)
}

// NewReserveChipsInstruction locks amount chips of the signer for play.
func NewReserveChipsInstruction(accounts ReserveChipsAccounts, amount uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindReserveChips
	if err := requireAccounts(kind,
		named{"signer", accounts.Signer},
		named{"chip_mint", accounts.ChipMint},
		named{"user_chip_account", accounts.UserChipAccount},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.Signer, true, true),
		meta(accounts.ChipMint, true, false),
		meta(accounts.UserChipAccount, true, false),
		meta(p.TokenProgram, false, false),
	}, u64Arg(amount), opts)
}

// NewSetClaimableRewardsInstruction records amount claimable chips for recipient.
func NewSetClaimableRewardsInstruction(accounts SetClaimableRewardsAccounts, amount uint64, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindSetClaimableRewards
	if err := requireAccounts(kind,
		named{"signer", accounts.Signer},
		named{"global_config", accounts.GlobalConfig},
		named{"recipient", accounts.Recipient},
		named{"claimable_rewards", accounts.ClaimableRewards},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.Signer, true, true),
		meta(accounts.GlobalConfig, false, false),
		meta(accounts.Recipient, false, false),
		meta(accounts.ClaimableRewards, true, false),
		meta(p.SystemProgram, false, false),
	}, u64Arg(amount), opts)
}

// NewClaimChipsInstruction mints the recorded rewards to the claimant.
func NewClaimChipsInstruction(accounts ClaimChipsAccounts, opts ...Option) (*solana.GenericInstruction, error) {
	kind := InstructionKindClaimChips
	if err := requireAccounts(kind,
		named{"claimant", accounts.Claimant},
		named{"claimable_rewards", accounts.ClaimableRewards},
		named{"treasury", accounts.Treasury},
		named{"chip_mint", accounts.ChipMint},
		named{"claimant_chip_account", accounts.ClaimantChipAccount},
	); err != nil {
		return nil, err
	}
	p := accounts.Programs.Resolve()
	return build(kind, []*solana.AccountMeta{
		meta(accounts.Claimant, true, true),
		meta(accounts.ClaimableRewards, true, false),
		meta(accounts.Treasury, true, false),
		meta(accounts.ChipMint, true, false),
		meta(accounts.ClaimantChipAccount, true, false),
		meta(p.TokenProgram, false, false),
		meta(p.AssociatedTokenProgram, false, false),
		meta(p.SystemProgram, false, false),
	}, nil, opts)
}

// DecodedInstruction is an instruction payload parsed back into its kind
// and arguments.
type DecodedInstruction struct {
	Kind InstructionKind
	// Amount carries the single u64 argument: an amount or a price depending
	// on the kind. Zero for kinds without arguments.
	Amount       uint64
	ReceiveToken solana.PublicKey // sell_chip only
}

func (k InstructionKind) dataSize() int {
	switch k {
	case InstructionKindInitialize, InstructionKindClaimChips:
		return DiscriminatorSize
	case InstructionKindSellChip:
		return DiscriminatorSize + bin.Uint64Size + bin.Key32Size
	}
	return DiscriminatorSize + bin.Uint64Size
}

// DecodeInstructionData parses the data of a program instruction.
func DecodeInstructionData(data []byte) (*DecodedInstruction, error) {
	kind := LookupInstructionKind(data)
	if kind == InstructionKindUnknown {
		return nil, ErrUnknownInstruction
	}
	if len(data) != kind.dataSize() {
		return nil, fmt.Errorf("%w: %s expects %d bytes, got %d", ErrInstructionData, kind, kind.dataSize(), len(data))
	}

	out := &DecodedInstruction{Kind: kind}
	offset := DiscriminatorSize
	if len(data) > offset {
		if err := bin.GetUint64(data, &out.Amount, &offset); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInstructionData, err)
		}
	}
	if kind == InstructionKindSellChip {
		if err := bin.GetKey32(data, &out.ReceiveToken, &offset); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInstructionData, err)
		}
	}
	return out, nil
}
