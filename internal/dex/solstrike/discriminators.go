// =============================
// File: internal/dex/solstrike/discriminators.go
// =============================
package solstrike

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// DiscriminatorSize is the length of the tag that prefixes every account
// and instruction payload.
const DiscriminatorSize = 8

// Discriminator is the 8-byte kind tag.
type Discriminator [DiscriminatorSize]byte

// Bytes returns the tag as a fresh slice.
func (d Discriminator) Bytes() []byte {
	out := make([]byte, DiscriminatorSize)
	copy(out, d[:])
	return out
}

// Matches reports whether data starts with the tag.
func (d Discriminator) Matches(data []byte) bool {
	return len(data) >= DiscriminatorSize && bytes.Equal(data[:DiscriminatorSize], d[:])
}

func (d Discriminator) String() string {
	return fmt.Sprintf("%x", d[:])
}

// Base58 encodes the tag the way getProgramAccounts memcmp filters expect it.
func (d Discriminator) Base58() string {
	return base58.Encode(d[:])
}

// tag keeps the three equivalent forms of a discriminator side by side.
// All of them are literals taken from the program IDL.
type tag struct {
	name   string
	bytes  Discriminator
	u64    uint64
	base58 string
}

// AccountKind enumerates the account types owned by the program.
type AccountKind uint8

const (
	AccountKindUnknown AccountKind = iota
	AccountKindChipTokenPriceState
	AccountKindGlobalConfig
	AccountKindTreasury
	AccountKindClaimableRewards

	accountKindCount
)

var accountTags = [accountKindCount]tag{
	AccountKindChipTokenPriceState: {
		name:   "ChipTokenPriceState",
		bytes:  Discriminator{19, 105, 122, 98, 26, 177, 126, 98},
		u64:    7097304789661935891,
		base58: "4FKcfS6ERmK",
	},
	AccountKindGlobalConfig: {
		name:   "GlobalConfig",
		bytes:  Discriminator{149, 8, 156, 202, 160, 252, 176, 217},
		u64:    15686315269655627925,
		base58: "Rvp9zjtEEBA",
	},
	AccountKindTreasury: {
		name:   "Treasury",
		bytes:  Discriminator{238, 239, 123, 238, 89, 1, 168, 253},
		u64:    18277860573447974894,
		base58: "gxyTsYaqFet",
	},
	AccountKindClaimableRewards: {
		name:   "ClaimableRewards",
		bytes:  Discriminator{248, 50, 225, 101, 103, 22, 216, 218},
		u64:    15769378728584491768,
		base58: "iWqeifhaXLm",
	},
}

// AllAccountKinds lists every known account kind.
func AllAccountKinds() []AccountKind {
	kinds := make([]AccountKind, 0, accountKindCount-1)
	for k := AccountKindUnknown + 1; k < accountKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k AccountKind) valid() bool {
	return k > AccountKindUnknown && k < accountKindCount
}

func (k AccountKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("AccountKind(%d)", uint8(k))
	}
	return accountTags[k].name
}

// Discriminator returns the byte form of the tag.
func (k AccountKind) Discriminator() Discriminator {
	if !k.valid() {
		return Discriminator{}
	}
	return accountTags[k].bytes
}

// Uint64 returns the tag read as a little-endian integer.
func (k AccountKind) Uint64() uint64 {
	if !k.valid() {
		return 0
	}
	return accountTags[k].u64
}

// Base58 returns the textual form used by memcmp filters.
func (k AccountKind) Base58() string {
	if !k.valid() {
		return ""
	}
	return accountTags[k].base58
}

// Size is the fixed serialized length of the account, discriminator included.
func (k AccountKind) Size() int {
	switch k {
	case AccountKindChipTokenPriceState:
		return ChipTokenPriceStateAccountSize
	case AccountKindGlobalConfig:
		return GlobalConfigAccountSize
	case AccountKindTreasury:
		return TreasuryAccountSize
	case AccountKindClaimableRewards:
		return ClaimableRewardsAccountSize
	}
	return 0
}

// LookupAccountKind identifies the account kind of data by its leading tag.
// Unknown or short buffers yield AccountKindUnknown.
func LookupAccountKind(data []byte) AccountKind {
	for _, k := range AllAccountKinds() {
		if accountTags[k].bytes.Matches(data) {
			return k
		}
	}
	return AccountKindUnknown
}

// InstructionKind enumerates the program instructions.
type InstructionKind uint8

const (
	InstructionKindUnknown InstructionKind = iota
	InstructionKindAddToken
	InstructionKindBuyChip
	InstructionKindBuyChipWithSol
	InstructionKindInitGlobalConfig
	InstructionKindInitialize
	InstructionKindSellChip
	InstructionKindUpdateChipTokenPrice
	InstructionKindUpdateSolChipPrice
	InstructionKindReserveChips
	InstructionKindSetClaimableRewards
	InstructionKindClaimChips

	instructionKindCount
)

var instructionTags = [instructionKindCount]tag{
	InstructionKindAddToken: {
		name:   "add_token",
		bytes:  Discriminator{237, 255, 26, 54, 56, 48, 68, 52},
		u64:    3766188206372618221,
		base58: "gos7tJiaw3H",
	},
	InstructionKindBuyChip: {
		name:   "buy_chip",
		bytes:  Discriminator{225, 179, 126, 114, 56, 254, 160, 77},
		u64:    5593750255586685921,
		base58: "ekas7USiHjr",
	},
	InstructionKindBuyChipWithSol: {
		name:   "buy_chip_with_sol",
		bytes:  Discriminator{73, 167, 123, 166, 190, 79, 105, 127},
		u64:    9180956995626968905,
		base58: "DKYDqcNt3PL",
	},
	InstructionKindInitGlobalConfig: {
		name:   "init_global_config",
		bytes:  Discriminator{140, 136, 214, 48, 87, 0, 120, 255},
		u64:    18408463851358423180,
		base58: "QWMvxePUwsU",
	},
	InstructionKindInitialize: {
		name:   "initialize",
		bytes:  Discriminator{175, 175, 109, 31, 13, 152, 155, 237},
		u64:    17121445590508351407,
		base58: "WPNHsFPyEMr",
	},
	InstructionKindSellChip: {
		name:   "sell_chip",
		bytes:  Discriminator{229, 172, 251, 173, 192, 30, 63, 46},
		u64:    3332416062178962661,
		base58: "fR9FAccGiDB",
	},
	InstructionKindUpdateChipTokenPrice: {
		name:   "update_chip_token_price",
		bytes:  Discriminator{147, 92, 173, 202, 142, 0, 41, 202},
		u64:    14567175082992295059,
		base58: "RebaoE1oko3",
	},
	InstructionKindUpdateSolChipPrice: {
		name:   "update_sol_chip_price",
		bytes:  Discriminator{180, 205, 175, 85, 110, 6, 86, 162},
		u64:    11697544153095196084,
		base58: "XF2AKmAzibs",
	},
	InstructionKindReserveChips: {
		name:   "reserve_chips",
		bytes:  Discriminator{205, 32, 104, 2, 153, 194, 154, 38},
		u64:    2781749682280865997,
		base58: "bJz82PJdGDb",
	},
	InstructionKindSetClaimableRewards: {
		name:   "set_claimable_rewards",
		bytes:  Discriminator{169, 73, 150, 241, 151, 85, 180, 223},
		u64:    16119603077347428777,
		base58: "VKJRbZMkQEz",
	},
	InstructionKindClaimChips: {
		name:   "claim_chips",
		bytes:  Discriminator{145, 205, 154, 242, 241, 150, 215, 26},
		u64:    1934180530880433553,
		base58: "RPUSgkacLbK",
	},
}

// AllInstructionKinds lists every known instruction kind.
func AllInstructionKinds() []InstructionKind {
	kinds := make([]InstructionKind, 0, instructionKindCount-1)
	for k := InstructionKindUnknown + 1; k < instructionKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k InstructionKind) valid() bool {
	return k > InstructionKindUnknown && k < instructionKindCount
}

func (k InstructionKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("InstructionKind(%d)", uint8(k))
	}
	return instructionTags[k].name
}

func (k InstructionKind) Discriminator() Discriminator {
	if !k.valid() {
		return Discriminator{}
	}
	return instructionTags[k].bytes
}

func (k InstructionKind) Uint64() uint64 {
	if !k.valid() {
		return 0
	}
	return instructionTags[k].u64
}

func (k InstructionKind) Base58() string {
	if !k.valid() {
		return ""
	}
	return instructionTags[k].base58
}

// Verified reports whether the account list of the instruction is confirmed
// against the deployed IDL. sell_chip declares no accounts in the published
// IDL; reserve_chips, set_claimable_rewards and claim_chips were rebuilt from
// client scripts and still need confirmation.
func (k InstructionKind) Verified() bool {
	switch k {
	case InstructionKindSellChip,
		InstructionKindReserveChips,
		InstructionKindSetClaimableRewards,
		InstructionKindClaimChips:
		return false
	}
	return k.valid()
}

// LookupInstructionKind identifies the instruction encoded in data.
func LookupInstructionKind(data []byte) InstructionKind {
	for _, k := range AllInstructionKinds() {
		if instructionTags[k].bytes.Matches(data) {
			return k
		}
	}
	return InstructionKindUnknown
}
