// =============================
// File: internal/dex/solstrike/errors.go
// =============================
package solstrike

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
)

var (
	// ErrAccountKindMismatch is returned when the record at an address is not
	// of the requested kind.
	ErrAccountKindMismatch = errors.New("account kind mismatch")

	// ErrAccountNotFound is returned when the address holds no account.
	ErrAccountNotFound = blockchain.ErrAccountNotFound

	// ErrDerivationDrift means a locally derived bump disagrees with the bump
	// stored on chain. The compiled program id or seeds are stale.
	ErrDerivationDrift = errors.New("derivation drift")

	ErrMissingAccount     = errors.New("missing required account")
	ErrUnknownInstruction = errors.New("unknown instruction discriminator")
	ErrInstructionData    = errors.New("malformed instruction data")
)

// DerivationDriftError describes a bump mismatch for one PDA.
type DerivationDriftError struct {
	Kind        AccountKind
	Address     solana.PublicKey
	DerivedBump uint8
	OnChainBump uint8
}

func (e *DerivationDriftError) Error() string {
	return fmt.Sprintf("%s at %s: derived bump %d, on-chain bump %d: %v",
		e.Kind, e.Address, e.DerivedBump, e.OnChainBump, ErrDerivationDrift)
}

func (e *DerivationDriftError) Unwrap() error {
	return ErrDerivationDrift
}

// Custom error codes. 6000 and up belong to the program; the rest are the
// Anchor framework codes a client of this program runs into.
const (
	ErrorCodeConstraintHasOne             uint32 = 2001
	ErrorCodeConstraintSigner             uint32 = 2002
	ErrorCodeConstraintSeeds              uint32 = 2006
	ErrorCodeAccountDiscriminatorMismatch uint32 = 3002
	ErrorCodeAccountNotInitialized        uint32 = 3012

	ErrorCodeOverflow uint32 = 6000
)

// ProgramError is a decoded custom error code.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("program error %d (0x%x) %s: %s", e.Code, e.Code, e.Name, e.Msg)
}

var programErrors = map[uint32]ProgramError{
	ErrorCodeConstraintHasOne:             {Name: "ConstraintHasOne", Msg: "A has one constraint was violated"},
	ErrorCodeConstraintSigner:             {Name: "ConstraintSigner", Msg: "A signer constraint was violated"},
	ErrorCodeConstraintSeeds:              {Name: "ConstraintSeeds", Msg: "A seeds constraint was violated"},
	ErrorCodeAccountDiscriminatorMismatch: {Name: "AccountDiscriminatorMismatch", Msg: "Account discriminator did not match what was expected"},
	ErrorCodeAccountNotInitialized:        {Name: "AccountNotInitialized", Msg: "The program expected this account to be already initialized"},
	ErrorCodeOverflow:                     {Name: "Overflow", Msg: "Overflow"},
}

// LookupProgramError returns the named error for code, if known.
func LookupProgramError(code uint32) (*ProgramError, bool) {
	e, ok := programErrors[code]
	if !ok {
		return nil, false
	}
	e.Code = code
	return &e, true
}

var (
	hexCodeRe    = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)
	customCodeRe = regexp.MustCompile(`"?Custom"?\s*:\s*(\d+)`)
)

// ParseProgramError extracts a custom error code from a transport error or a
// transaction status error. Unknown codes are still returned, with an empty
// name.
func ParseProgramError(err error) (*ProgramError, bool) {
	if err == nil {
		return nil, false
	}
	msg := err.Error()

	var code uint64
	var perr error
	if m := hexCodeRe.FindStringSubmatch(msg); m != nil {
		code, perr = strconv.ParseUint(m[1], 16, 32)
	} else if m := customCodeRe.FindStringSubmatch(msg); m != nil {
		code, perr = strconv.ParseUint(m[1], 10, 32)
	} else {
		return nil, false
	}
	if perr != nil {
		return nil, false
	}

	if known, ok := LookupProgramError(uint32(code)); ok {
		return known, true
	}
	return &ProgramError{Code: uint32(code), Msg: "unknown custom error"}, true
}
