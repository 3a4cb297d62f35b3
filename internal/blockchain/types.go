// internal/blockchain/types.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionOptions определяет опции для отправки транзакций.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// SimulationResult представляет результат симуляции транзакции.
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// AccountRecord is the raw state of one account as returned by the node.
type AccountRecord struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
	Slot     uint64
}

// AccountStream delivers successive states of one subscribed account.
type AccountStream interface {
	// Recv blocks until the next update, ctx is done or the stream fails.
	Recv(ctx context.Context) (*AccountRecord, error)
	Close()
}

// AccountSource is the read side of the transport.
type AccountSource interface {
	GetAccount(ctx context.Context, address solana.PublicKey, commitment rpc.CommitmentType) (*AccountRecord, error)
	// GetProgramAccounts returns accounts of programID whose data starts with prefix.
	GetProgramAccounts(ctx context.Context, programID solana.PublicKey, prefix []byte, commitment rpc.CommitmentType) ([]*AccountRecord, error)
	SubscribeAccount(ctx context.Context, address solana.PublicKey, commitment rpc.CommitmentType) (AccountStream, error)
}

// Client определяет общий интерфейс для взаимодействия с блокчейном.
type Client interface {
	AccountSource

	// Получить последний blockhash.
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	// Отправить транзакцию с опциями.
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	// Симулировать транзакцию.
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error)
	// Получить статусы подписей транзакций.
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	// Получить баланс аккаунта.
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	// Получить баланс токенного аккаунта.
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.UiTokenAmount, error)
	// Получить исполненную транзакцию.
	GetTransaction(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) (*rpc.GetTransactionResult, error)
	// Ожидание подтверждения транзакции.
	WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error
}
