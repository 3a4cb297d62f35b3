// internal/blockchain/solbc/transaction/monitor.go
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// StatusSource отдаёт статусы подписей.
type StatusSource interface {
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

type Monitor struct {
	client   StatusSource
	logger   *zap.Logger
	config   Config
	interval time.Duration
}

func NewMonitor(client StatusSource, logger *zap.Logger, config Config) *Monitor {
	if config.ConfirmationTime <= 0 {
		config.ConfirmationTime = DefaultConfig().ConfirmationTime
	}
	if config.Commitment == "" {
		config.Commitment = rpc.CommitmentConfirmed
	}
	return &Monitor{
		client:   client,
		logger:   logger.Named("tx-monitor"),
		config:   config,
		interval: 500 * time.Millisecond,
	}
}

func (m *Monitor) GetTransactionStatus(ctx context.Context, signature solana.Signature) (*Status, error) {
	response, err := m.client.GetSignatureStatuses(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}

	txStatus := &Status{
		Signature: signature.String(),
		Status:    "pending",
		Timestamp: time.Now(),
	}
	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return txStatus, nil
	}

	status := response.Value[0]
	txStatus.Slot = status.Slot

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		txStatus.Status = "finalized"
	case rpc.ConfirmationStatusConfirmed:
		txStatus.Status = "confirmed"
	case rpc.ConfirmationStatusProcessed:
		txStatus.Status = "processed"
	}

	if status.Err != nil {
		txStatus.Error = fmt.Sprintf("%v", status.Err)
		txStatus.Status = "failed"
	}

	return txStatus, nil
}

func (m *Monitor) done(s *Status) bool {
	switch s.Status {
	case "failed", "finalized":
		return true
	case "confirmed":
		return m.config.Commitment != rpc.CommitmentFinalized
	case "processed":
		return m.config.Commitment == rpc.CommitmentProcessed
	}
	return false
}

// AwaitConfirmation опрашивает статус, пока транзакция не достигнет
// требуемого уровня подтверждения или не упадёт.
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature) (*Status, error) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	deadline := time.After(m.config.ConfirmationTime)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("%s: %w", signature, ErrConfirmationTimeout)
		case <-ticker.C:
			status, err := m.GetTransactionStatus(ctx, signature)
			if err != nil {
				m.logger.Warn("Confirmation check failed", zap.Error(err))
				continue
			}
			if m.done(status) {
				return status, nil
			}
		}
	}
}
