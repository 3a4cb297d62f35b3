package sqlstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/storage"
	"github.com/rovshanmuradov/solstrike-client/internal/storage/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.RunMigrations(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTransactions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for i, authority := range []string{"alice", "bob", "alice"} {
		require.NoError(t, s.SaveTransaction(ctx, &models.Transaction{
			Signature:   fmt.Sprintf("sig-%d", i),
			Authority:   authority,
			Instruction: "buy_chip_with_sol",
			Status:      "confirmed",
			Amount:      uint64(i+1) * 1_000_000_000,
		}))
	}

	got, err := s.GetTransaction(ctx, "sig-1")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Authority)
	assert.Equal(t, uint64(2_000_000_000), got.Amount)

	_, err = s.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListTransactions(ctx, "alice", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sig-2", list[0].Signature)

	all, err := s.ListTransactions(ctx, "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.UpdateTransactionStatus(ctx, "sig-0", "failed", "custom program error: 0x1770"))
	got, err = s.GetTransaction(ctx, "sig-0")
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "custom program error: 0x1770", got.ErrorMessage)

	assert.ErrorIs(t, s.UpdateTransactionStatus(ctx, "missing", "failed", ""), storage.ErrNotFound)
}

func TestBuyObservationsAreIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	obs := &models.BuyObservation{Signature: "sig", Supplied: 15_000_000, Price: 10_000_000, ChipDelta: 1, Slot: 9}
	require.NoError(t, s.SaveBuyObservation(ctx, obs))
	require.NoError(t, s.SaveBuyObservation(ctx, &models.BuyObservation{Signature: "sig", Supplied: 1, Price: 1, ChipDelta: 1}))
	require.NoError(t, s.SaveBuyObservation(ctx, &models.BuyObservation{Signature: "other", Supplied: 17_000_000_000, Price: 10_000_000, ChipDelta: 1700}))

	list, err := s.ListBuyObservations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(15_000_000), list[0].Supplied)
	assert.Equal(t, uint64(1700), list[1].ChipDelta)
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open("", zap.NewNop())
	assert.Error(t, err)
}

func TestDialector(t *testing.T) {
	_, pg := dialector("postgres://user@localhost/chips")
	assert.True(t, pg)
	_, pg = dialector("sqlite://chipctl.db")
	assert.False(t, pg)
	_, pg = dialector("chipctl.db")
	assert.False(t, pg)
}
