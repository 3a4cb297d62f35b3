// =============================
// File: internal/dex/solstrike/accounts.go
// =============================
package solstrike

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	bin "github.com/rovshanmuradov/solstrike-client/internal/utils/binary"
)

// Fixed serialized sizes, discriminator included.
const (
	GlobalConfigAccountSize        = DiscriminatorSize + bin.Uint64Size + bin.Uint8Size
	TreasuryAccountSize            = DiscriminatorSize + bin.Uint8Size
	ChipTokenPriceStateAccountSize = DiscriminatorSize + bin.Key32Size + bin.Uint64Size + bin.Uint8Size
	ClaimableRewardsAccountSize    = DiscriminatorSize + bin.Uint64Size + bin.Uint8Size
)

// Account is implemented by every decoded program record.
type Account interface {
	Kind() AccountKind
	Marshal() []byte
	PDABump() uint8
}

// GlobalConfig stores the SOL price of one chip.
type GlobalConfig struct {
	SolChipPrice uint64 // lamports per chip
	Bump         uint8
}

// Treasury is the program vault. Its lamport balance lives on the account
// itself, not in the data.
type Treasury struct {
	Bump uint8
}

// ChipTokenPriceState prices a chip in one SPL payment token.
type ChipTokenPriceState struct {
	TokenAddress solana.PublicKey
	TokenPrice   uint64 // token base units per chip
	Bump         uint8
}

// ClaimableRewards holds the chips an authority may claim.
type ClaimableRewards struct {
	Amount uint64
	Bump   uint8
}

// Keyed pairs a decoded record with the address it was read from.
type Keyed[T any] struct {
	Address  solana.PublicKey
	Lamports uint64
	Slot     uint64 // context slot of the read
	Value    *T
}

func (*GlobalConfig) Kind() AccountKind        { return AccountKindGlobalConfig }
func (*Treasury) Kind() AccountKind            { return AccountKindTreasury }
func (*ChipTokenPriceState) Kind() AccountKind { return AccountKindChipTokenPriceState }
func (*ClaimableRewards) Kind() AccountKind    { return AccountKindClaimableRewards }

func (a *GlobalConfig) PDABump() uint8        { return a.Bump }
func (a *Treasury) PDABump() uint8            { return a.Bump }
func (a *ChipTokenPriceState) PDABump() uint8 { return a.Bump }
func (a *ClaimableRewards) PDABump() uint8    { return a.Bump }

// header checks the tag and the fixed size and returns the offset of the
// first field.
func header(data []byte, kind AccountKind) (int, bool) {
	if len(data) < kind.Size() || !kind.Discriminator().Matches(data) {
		return 0, false
	}
	return DiscriminatorSize, true
}

// DecodeGlobalConfig parses a GlobalConfig record. Any other kind, or a
// buffer that is too short, yields (nil, false).
func DecodeGlobalConfig(data []byte) (*GlobalConfig, bool) {
	offset, ok := header(data, AccountKindGlobalConfig)
	if !ok {
		return nil, false
	}
	var out GlobalConfig
	if err := bin.GetUint64(data, &out.SolChipPrice, &offset); err != nil {
		return nil, false
	}
	if err := bin.GetUint8(data, &out.Bump, &offset); err != nil {
		return nil, false
	}
	return &out, true
}

// DecodeTreasury parses a Treasury record.
func DecodeTreasury(data []byte) (*Treasury, bool) {
	offset, ok := header(data, AccountKindTreasury)
	if !ok {
		return nil, false
	}
	var out Treasury
	if err := bin.GetUint8(data, &out.Bump, &offset); err != nil {
		return nil, false
	}
	return &out, true
}

// DecodeChipTokenPriceState parses a ChipTokenPriceState record.
func DecodeChipTokenPriceState(data []byte) (*ChipTokenPriceState, bool) {
	offset, ok := header(data, AccountKindChipTokenPriceState)
	if !ok {
		return nil, false
	}
	var out ChipTokenPriceState
	if err := bin.GetKey32(data, &out.TokenAddress, &offset); err != nil {
		return nil, false
	}
	if err := bin.GetUint64(data, &out.TokenPrice, &offset); err != nil {
		return nil, false
	}
	if err := bin.GetUint8(data, &out.Bump, &offset); err != nil {
		return nil, false
	}
	return &out, true
}

// DecodeClaimableRewards parses a ClaimableRewards record.
func DecodeClaimableRewards(data []byte) (*ClaimableRewards, bool) {
	offset, ok := header(data, AccountKindClaimableRewards)
	if !ok {
		return nil, false
	}
	var out ClaimableRewards
	if err := bin.GetUint64(data, &out.Amount, &offset); err != nil {
		return nil, false
	}
	if err := bin.GetUint8(data, &out.Bump, &offset); err != nil {
		return nil, false
	}
	return &out, true
}

// DecodeAccount dispatches on the leading tag.
func DecodeAccount(data []byte) (Account, bool) {
	switch LookupAccountKind(data) {
	case AccountKindGlobalConfig:
		if v, ok := DecodeGlobalConfig(data); ok {
			return v, true
		}
	case AccountKindTreasury:
		if v, ok := DecodeTreasury(data); ok {
			return v, true
		}
	case AccountKindChipTokenPriceState:
		if v, ok := DecodeChipTokenPriceState(data); ok {
			return v, true
		}
	case AccountKindClaimableRewards:
		if v, ok := DecodeClaimableRewards(data); ok {
			return v, true
		}
	}
	return nil, false
}

// mustBytes panics when a fixed-width record overflowed its buffer. That can
// only happen if a size constant disagrees with the field list.
func mustBytes(w *bin.Writer) []byte {
	out, err := w.Bytes()
	if err != nil {
		panic(fmt.Sprintf("solstrike: record layout: %v", err))
	}
	return out
}

// Marshal produces the on-chain byte layout.
func (a *GlobalConfig) Marshal() []byte {
	w := bin.NewWriter(GlobalConfigAccountSize)
	w.Raw(AccountKindGlobalConfig.Discriminator().Bytes()).
		Uint64(a.SolChipPrice).
		Uint8(a.Bump)
	return mustBytes(w)
}

func (a *Treasury) Marshal() []byte {
	w := bin.NewWriter(TreasuryAccountSize)
	w.Raw(AccountKindTreasury.Discriminator().Bytes()).Uint8(a.Bump)
	return mustBytes(w)
}

func (a *ChipTokenPriceState) Marshal() []byte {
	w := bin.NewWriter(ChipTokenPriceStateAccountSize)
	w.Raw(AccountKindChipTokenPriceState.Discriminator().Bytes()).
		Key32(a.TokenAddress).
		Uint64(a.TokenPrice).
		Uint8(a.Bump)
	return mustBytes(w)
}

func (a *ClaimableRewards) Marshal() []byte {
	w := bin.NewWriter(ClaimableRewardsAccountSize)
	w.Raw(AccountKindClaimableRewards.Discriminator().Bytes()).
		Uint64(a.Amount).
		Uint8(a.Bump)
	return mustBytes(w)
}

func (a *GlobalConfig) String() string {
	return fmt.Sprintf("GlobalConfig{sol_chip_price=%d bump=%d}", a.SolChipPrice, a.Bump)
}

func (a *Treasury) String() string {
	return fmt.Sprintf("Treasury{bump=%d}", a.Bump)
}

func (a *ChipTokenPriceState) String() string {
	return fmt.Sprintf("ChipTokenPriceState{token=%s token_price=%d bump=%d}",
		a.TokenAddress.String(), a.TokenPrice, a.Bump)
}

func (a *ClaimableRewards) String() string {
	return fmt.Sprintf("ClaimableRewards{amount=%d bump=%d}", a.Amount, a.Bump)
}
