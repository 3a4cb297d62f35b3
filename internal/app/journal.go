// internal/app/journal.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/economy"
	"github.com/rovshanmuradov/solstrike-client/internal/storage"
	"github.com/rovshanmuradov/solstrike-client/internal/storage/models"
	"github.com/rovshanmuradov/solstrike-client/internal/storage/sqlstore"
)

// ErrNoJournal is returned by history queries when journal_dsn is not set.
var ErrNoJournal = errors.New("no journal configured")

const migrateTimeout = 30 * time.Second

// WithJournal replaces the journal opened from journal_dsn.
func WithJournal(j storage.Journal) Option {
	return func(a *App) { a.journal = j }
}

func (a *App) openJournal() error {
	if a.journal != nil || a.cfg.JournalDSN == "" {
		return nil
	}
	store, err := sqlstore.Open(a.cfg.JournalDSN, a.logger.Named("journal"))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := store.RunMigrations(ctx); err != nil {
		store.Close()
		return err
	}
	a.journal = store
	a.shutdown.AddFunc("journal", store.Close)
	return nil
}

// send signs, sends and confirms ixs, then journals the outcome.
func (a *App) send(ctx context.Context, tm *transaction.Manager, kind solstrike.InstructionKind,
	authority solana.PublicKey, amount uint64, ixs ...solana.Instruction) (*transaction.Status, error) {
	status, err := tm.SendAndConfirm(ctx, kind.String(), ixs...)
	a.record(ctx, kind, authority, amount, status, err)
	return status, err
}

// record never fails the operation: the transaction already landed or not.
func (a *App) record(ctx context.Context, kind solstrike.InstructionKind, authority solana.PublicKey,
	amount uint64, status *transaction.Status, sendErr error) {
	if a.journal == nil || status == nil {
		return
	}
	row := &models.Transaction{
		Signature:    status.Signature,
		Authority:    authority.String(),
		Instruction:  kind.String(),
		Status:       status.Status,
		Slot:         status.Slot,
		Amount:       amount,
		ErrorMessage: status.Error,
	}
	if row.ErrorMessage == "" && sendErr != nil {
		row.ErrorMessage = sendErr.Error()
	}
	if err := a.journal.SaveTransaction(ctx, row); err != nil {
		a.logger.Warn("Failed to journal transaction",
			zap.String("signature", status.Signature), zap.Error(err))
	}
}

func (a *App) recordBuy(ctx context.Context, status *transaction.Status, obs *economy.BuyObservation) {
	if a.journal == nil {
		return
	}
	err := a.journal.SaveBuyObservation(ctx, &models.BuyObservation{
		Signature:    status.Signature,
		Supplied:     obs.Supplied,
		Price:        obs.Price,
		ChipDelta:    obs.ChipDelta,
		ChipDecimals: obs.ChipDecimals,
		Slot:         status.Slot,
	})
	if err != nil {
		a.logger.Warn("Failed to journal buy observation",
			zap.String("signature", status.Signature), zap.Error(err))
	}
}

// History lists journaled transactions, newest first. A zero authority
// lists every authority.
func (a *App) History(ctx context.Context, authority solana.PublicKey, limit int) ([]*models.Transaction, error) {
	if a.journal == nil {
		return nil, ErrNoJournal
	}
	var filter string
	if !authority.IsZero() {
		filter = authority.String()
	}
	return a.journal.ListTransactions(ctx, filter, limit, 0)
}

// RoundingReport is the outcome of pinning the rounding rule against every
// journaled purchase.
type RoundingReport struct {
	Observations int
	Consistent   []economy.RoundingRule
	Configured   economy.RoundingRule
}

// Agrees reports whether the configured rule survived every observation.
func (r *RoundingReport) Agrees() bool {
	for _, rule := range r.Consistent {
		if rule == r.Configured {
			return true
		}
	}
	return false
}

// PinRounding replays the journaled purchases against every rounding rule.
func (a *App) PinRounding(ctx context.Context) (*RoundingReport, error) {
	if a.journal == nil {
		return nil, ErrNoJournal
	}
	rows, err := a.journal.ListBuyObservations(ctx)
	if err != nil {
		return nil, err
	}
	obs := make([]economy.BuyObservation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, economy.BuyObservation{
			Supplied:     r.Supplied,
			Price:        r.Price,
			ChipDelta:    r.ChipDelta,
			ChipDecimals: r.ChipDecimals,
		})
	}
	rules, err := economy.PinRoundingRule(obs...)
	if err != nil {
		return nil, fmt.Errorf("pin rounding over %d purchases: %w", len(obs), err)
	}
	return &RoundingReport{Observations: len(obs), Consistent: rules, Configured: a.pricing.Rule}, nil
}
