// internal/blockchain/solbc/transaction/manager.go
package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solstrike-client/internal/utils/metrics"
)

type Manager struct {
	client    blockchain.Client
	signer    Signer
	logger    *zap.Logger
	config    Config
	validator *Validator
	monitor   *Monitor
	analyzer  *solbc.ErrorAnalyzer
	metrics   *metrics.Collector
}

func NewManager(client blockchain.Client, signer Signer, logger *zap.Logger, config Config, m *metrics.Collector) *Manager {
	if config.MaxRetries == 0 {
		config.MaxRetries = 1
	}
	return &Manager{
		client:    client,
		signer:    signer,
		logger:    logger.Named("tx-manager"),
		config:    config,
		validator: NewValidator(logger),
		monitor:   NewMonitor(client, logger, config),
		analyzer:  solbc.NewErrorAnalyzer(logger),
		metrics:   m,
	}
}

// priorityInstructions подготавливает инструкции лимита и цены вычислительных единиц.
func (tm *Manager) priorityInstructions() []solana.Instruction {
	var out []solana.Instruction
	if tm.config.ComputeUnits > 0 {
		out = append(out, computebudget.NewSetComputeUnitLimitInstruction(tm.config.ComputeUnits).Build())
	}
	if tm.config.PriorityFee > 0 {
		out = append(out, computebudget.NewSetComputeUnitPriceInstruction(tm.config.PriorityFee).Build())
	}
	return out
}

// Build собирает и подписывает транзакцию со свежим blockhash.
func (tm *Manager) Build(ctx context.Context, instructions ...solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := tm.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	all := append(tm.priorityInstructions(), instructions...)
	tx, err := solana.NewTransaction(all, blockhash, solana.TransactionPayer(tm.signer.Address()))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := tm.signer.SignTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := tm.validator.ValidateTransaction(tx); err != nil {
		return nil, fmt.Errorf("transaction validation failed: %w", err)
	}
	return tx, nil
}

// Simulate прогоняет транзакцию без отправки.
func (tm *Manager) Simulate(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	res, err := tm.client.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if res.Err != nil {
		return res, &SimulationError{
			Err:    res.Err,
			Logs:   res.Logs,
			Anchor: tm.analyzer.AnalyzeLogs(res.Logs),
		}
	}
	return res, nil
}

// SendAndConfirm строит, симулирует, отправляет транзакцию и ждёт подтверждения.
// label используется только для логов и метрик.
func (tm *Manager) SendAndConfirm(ctx context.Context, label string, instructions ...solana.Instruction) (*Status, error) {
	start := time.Now()
	log := tm.logger.With(zap.String("instruction", label))

	// last keeps the status of a transaction that landed with an error.
	var last *Status
	op := func() (*Status, error) {
		tx, err := tm.Build(ctx, instructions...)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if tm.config.Simulate {
			res, err := tm.Simulate(ctx, tx)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			log.Debug("Simulation passed", zap.Uint64("units", res.UnitsConsumed))
		}

		sig, err := tm.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
			SkipPreflight:       tm.config.SkipPreflight,
			PreflightCommitment: tm.config.Commitment,
		})
		if err != nil {
			// Протухший blockhash лечится пересборкой транзакции.
			if strings.Contains(err.Error(), "BlockhashNotFound") || strings.Contains(err.Error(), "Blockhash not found") {
				log.Warn("Blockhash expired, rebuilding transaction", zap.Error(err))
				return nil, err
			}
			if analysis := tm.analyzer.AnalyzeRPCError(err); analysis.AnchorError != nil {
				log.Error("Program rejected transaction", zap.String("analysis", tm.analyzer.FormatErrorAnalysis(analysis)))
			}
			return nil, backoff.Permanent(fmt.Errorf("transaction failed: %w", err))
		}
		log.Info("Transaction sent", zap.String("signature", sig.String()))

		status, err := tm.monitor.AwaitConfirmation(ctx, sig)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("transaction %s not confirmed: %w", sig, err))
		}
		if status.Status == "failed" {
			last = status
			return status, backoff.Permanent(fmt.Errorf("%w: %s: %s", solbc.ErrTransactionFailed, sig, status.Error))
		}
		return status, nil
	}

	policy := backoff.NewExponentialBackOff()
	if tm.config.RetryDelay > 0 {
		policy.InitialInterval = tm.config.RetryDelay
	}

	status, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(tm.config.MaxRetries))

	tm.metrics.RecordTransaction(ctx, label, time.Since(start), err == nil)
	if err != nil {
		log.Error("Failed to send transaction", zap.Error(err))
		return last, err
	}

	log.Info("Transaction confirmed",
		zap.String("signature", status.Signature),
		zap.String("status", status.Status),
		zap.Duration("took", time.Since(start)))
	return status, nil
}
