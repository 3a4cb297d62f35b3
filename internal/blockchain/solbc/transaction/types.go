// internal/blockchain/solbc/transaction/types.go
package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
)

var (
	ErrConfirmationTimeout = solbc.ErrConfirmationTimeout
	ErrInvalidSignature    = errors.New("invalid transaction signature")
	ErrInvalidBlockhash    = errors.New("invalid blockhash")
	ErrInvalidInstruction  = errors.New("invalid instruction")
	ErrSimulationFailed    = errors.New("transaction simulation failed")
)

// Signer подписывает транзакции от имени плательщика.
type Signer interface {
	Address() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

type Config struct {
	MaxRetries       uint
	RetryDelay       time.Duration
	ConfirmationTime time.Duration
	PriorityFee      uint64 // micro-lamports per compute unit
	ComputeUnits     uint32
	SkipPreflight    bool
	Simulate         bool
	Commitment       rpc.CommitmentType
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		RetryDelay:       500 * time.Millisecond,
		ConfirmationTime: 60 * time.Second,
		Simulate:         true,
		Commitment:       rpc.CommitmentConfirmed,
	}
}

type Status struct {
	Signature string
	Status    string
	Slot      uint64
	Error     string
	Timestamp time.Time
}

// SimulationError несёт логи и разобранную ошибку Anchor провалившейся симуляции.
type SimulationError struct {
	Err    interface{}
	Logs   []string
	Anchor *solbc.AnchorError
}

func (e *SimulationError) Error() string {
	if e.Anchor != nil {
		return fmt.Sprintf("%v: %s (%d): %s", ErrSimulationFailed, e.Anchor.Name, e.Anchor.Code, e.Anchor.Msg)
	}
	return fmt.Sprintf("%v: %v", ErrSimulationFailed, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return ErrSimulationFailed
}
