// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/solstrike-client/internal/storage/models"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("not found")

// Journal records what chipctl sent and what the chain answered.
type Journal interface {
	// Транзакции
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, signature string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, authority string, limit, offset int) ([]*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, signature string, status string, errorMsg string) error

	// Наблюдения покупок
	SaveBuyObservation(ctx context.Context, obs *models.BuyObservation) error
	ListBuyObservations(ctx context.Context) ([]*models.BuyObservation, error)

	RunMigrations(ctx context.Context) error
	Close() error
}
