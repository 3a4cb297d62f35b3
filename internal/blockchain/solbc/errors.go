// internal/blockchain/solbc/errors.go
package solbc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
)

var (
	// ErrConfirmationTimeout возникает, если транзакция не подтвердилась вовремя
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

	// ErrTransactionFailed возникает, если транзакция попала в блок с ошибкой
	ErrTransactionFailed = errors.New("transaction failed on chain")
)

// RPCError представляет ошибку RPC с дополнительным контекстом
type RPCError struct {
	Err      error
	Endpoint string
	Method   string
}

// Error реализует интерфейс error
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.Endpoint, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *RPCError) Unwrap() error {
	return e.Err
}

// IsAccountNotFoundError проверяет, является ли ошибка "not found"
func IsAccountNotFoundError(err error) bool {
	return errors.Is(err, blockchain.ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound)
}

// retryable решает, имеет ли смысл повторять запрос. Ответ узла с кодом
// JSON-RPC (неверные параметры, провал симуляции) повтор не исправит.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsAccountNotFoundError(err) {
		return false
	}
	var rpcErr *jsonrpc.RPCError
	return !errors.As(err, &rpcErr)
}
