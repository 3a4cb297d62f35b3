// internal/blockchain/blockchain.go
package blockchain

import (
	"errors"
)

var (
	// ErrAccountNotFound возвращается, когда по адресу нет аккаунта.
	ErrAccountNotFound = errors.New("account not found")

	// ErrStreamClosed возвращается подпиской после Close или обрыва соединения.
	ErrStreamClosed = errors.New("account stream closed")
)
