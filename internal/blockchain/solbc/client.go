// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
	"github.com/rovshanmuradov/solstrike-client/internal/utils/metrics"
)

// RetryPolicy описывает повторы RPC-запросов.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy возвращает политику по умолчанию.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
// Повторы и переподключения живут здесь, а не в кодеке.
type Client struct {
	rpc     *rpc.Client
	rpcURL  string
	wsURL   string
	logger  *zap.Logger
	metrics *metrics.Collector
	retry   RetryPolicy
	limiter *rate.Limiter // nil = без ограничения

	confirmInterval time.Duration
	confirmTimeout  time.Duration
}

// Option настраивает Client.
type Option func(*Client)

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		if p.MaxTries == 0 {
			p.MaxTries = 1
		}
		c.retry = p
	}
}

// WithConfirmation задаёт интервал опроса и таймаут ожидания подтверждения.
func WithConfirmation(interval, timeout time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.confirmInterval = interval
		}
		if timeout > 0 {
			c.confirmTimeout = timeout
		}
	}
}

// WithRateLimit ограничивает частоту RPC-запросов, включая повторы.
// Публичные RPC режут клиентов, превысивших свой лимит. perSecond <= 0
// снимает ограничение.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient создаёт новый клиент, принимая RPC и WebSocket URL и логгер через dependency injection.
func NewClient(rpcURL, wsURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		rpc:             rpc.New(rpcURL),
		rpcURL:          rpcURL,
		wsURL:           wsURL,
		logger:          logger.Named("solbc-client"),
		retry:           DefaultRetryPolicy(),
		confirmInterval: 500 * time.Millisecond,
		confirmTimeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call выполняет op с повторами и оборачивает итоговую ошибку в RPCError.
func call[T any](ctx context.Context, c *Client, method string, op func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retry.InitialInterval
	policy.MaxInterval = c.retry.MaxInterval

	notify := func(err error, d time.Duration) {
		c.metrics.RecordRetry(method)
		c.logger.Debug("Retrying RPC call",
			zap.String("method", method),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	result, err := backoff.Retry(ctx, func() (T, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				var zero T
				return zero, backoff.Permanent(err)
			}
		}
		v, err := op(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.retry.MaxTries),
		backoff.WithNotify(notify))

	c.metrics.RecordRPC(method, time.Since(start), err)
	if err != nil {
		var zero T
		return zero, &RPCError{Err: err, Endpoint: c.rpcURL, Method: method}
	}
	return result, nil
}

// GetAccount возвращает сырое состояние аккаунта.
func (c *Client) GetAccount(ctx context.Context, address solana.PublicKey, commitment rpc.CommitmentType) (*blockchain.AccountRecord, error) {
	res, err := call(ctx, c, "getAccountInfo", func(ctx context.Context) (*rpc.GetAccountInfoResult, error) {
		return c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
			Commitment: commitment,
			Encoding:   solana.EncodingBase64,
		})
	})
	if err != nil {
		if IsAccountNotFoundError(err) {
			return nil, fmt.Errorf("%s: %w", address, blockchain.ErrAccountNotFound)
		}
		c.logger.Debug("GetAccount error", zap.String("pubkey", address.String()), zap.Error(err))
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%s: %w", address, blockchain.ErrAccountNotFound)
	}
	return toRecord(address, res.Context.Slot, res.Value), nil
}

func toRecord(address solana.PublicKey, slot uint64, acc *rpc.Account) *blockchain.AccountRecord {
	rec := &blockchain.AccountRecord{
		Address:  address,
		Owner:    acc.Owner,
		Lamports: acc.Lamports,
		Slot:     slot,
	}
	if acc.Data != nil {
		rec.Data = acc.Data.GetBinary()
	}
	return rec
}

// GetProgramAccounts получает все аккаунты программы, данные которых начинаются с prefix.
func (c *Client) GetProgramAccounts(
	ctx context.Context,
	programID solana.PublicKey,
	prefix []byte,
	commitment rpc.CommitmentType,
) ([]*blockchain.AccountRecord, error) {
	opts := rpc.GetProgramAccountsOpts{
		Commitment: commitment,
		Encoding:   solana.EncodingBase64,
	}
	if len(prefix) > 0 {
		opts.Filters = append(opts.Filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: 0,
				Bytes:  prefix,
			},
		})
	}

	accounts, err := call(ctx, c, "getProgramAccounts", func(ctx context.Context) (rpc.GetProgramAccountsResult, error) {
		return c.rpc.GetProgramAccountsWithOpts(ctx, programID, &opts)
	})
	if err != nil {
		c.logger.Debug("GetProgramAccounts error",
			zap.String("program_id", programID.String()),
			zap.Error(err))
		return nil, err
	}

	out := make([]*blockchain.AccountRecord, 0, len(accounts))
	for _, acc := range accounts {
		if acc == nil || acc.Account == nil {
			continue
		}
		out = append(out, toRecord(acc.Pubkey, 0, acc.Account))
	}
	return out, nil
}

// GetRecentBlockhash получает последний blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := call(ctx, c, "getLatestBlockhash", func(ctx context.Context) (*rpc.GetLatestBlockhashResult, error) {
		return c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	})
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendTransactionWithOpts отправляет транзакцию с заданными опциями.
func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	sig, err := call(ctx, c, "sendTransaction", func(ctx context.Context) (solana.Signature, error) {
		return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
		})
	})
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// SimulateTransaction симулирует транзакцию и возвращает результат симуляции.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*blockchain.SimulationResult, error) {
	result, err := call(ctx, c, "simulateTransaction", func(ctx context.Context) (*rpc.SimulateTransactionResponse, error) {
		return c.rpc.SimulateTransaction(ctx, tx)
	})
	if err != nil {
		c.logger.Error("SimulateTransaction error", zap.Error(err))
		return nil, err
	}
	units := uint64(0)
	if result.Value.UnitsConsumed != nil {
		units = *result.Value.UnitsConsumed
	}
	return &blockchain.SimulationResult{
		Err:           result.Value.Err,
		Logs:          result.Value.Logs,
		UnitsConsumed: units,
	}, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return call(ctx, c, "getSignatureStatuses", func(ctx context.Context) (*rpc.GetSignatureStatusesResult, error) {
		return c.rpc.GetSignatureStatuses(ctx, false, signatures...)
	})
}

// GetBalance получает баланс аккаунта в лампортах.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	result, err := call(ctx, c, "getBalance", func(ctx context.Context) (*rpc.GetBalanceResult, error) {
		return c.rpc.GetBalance(ctx, pubkey, commitment)
	})
	if err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetTokenAccountBalance получает баланс токенного аккаунта
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.UiTokenAmount, error) {
	result, err := call(ctx, c, "getTokenAccountBalance", func(ctx context.Context) (*rpc.GetTokenAccountBalanceResult, error) {
		return c.rpc.GetTokenAccountBalance(ctx, account, commitment)
	})
	if err != nil {
		// Узел отвечает "could not find account" для ещё не созданного ATA.
		if IsAccountNotFoundError(err) || strings.Contains(err.Error(), "could not find account") {
			return nil, fmt.Errorf("%s: %w", account, blockchain.ErrAccountNotFound)
		}
		return nil, err
	}
	if result.Value == nil {
		return nil, fmt.Errorf("%s: %w", account, blockchain.ErrAccountNotFound)
	}
	return result.Value, nil
}

// GetTransaction получает исполненную транзакцию вместе с метаданными.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	return call(ctx, c, "getTransaction", func(ctx context.Context) (*rpc.GetTransactionResult, error) {
		return c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     commitment,
			MaxSupportedTransactionVersion: &maxVersion,
		})
	})
}

// WaitForTransactionConfirmation ожидает подтверждения транзакции (с простым polling‑механизмом).
// Транзакция, попавшая в блок с ошибкой, возвращает ErrTransactionFailed.
func (c *Client) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	ticker := time.NewTicker(c.confirmInterval)
	defer ticker.Stop()
	timeout := time.After(c.confirmTimeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("%s: %w", signature, ErrConfirmationTimeout)
		case <-ticker.C:
			statuses, err := c.GetSignatureStatuses(ctx, signature)
			if err != nil {
				c.logger.Warn("Error getting signature statuses", zap.Error(err))
				continue
			}
			if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, status.Err)
			}
			if reached(status.ConfirmationStatus, commitment) {
				return nil
			}
		}
	}
}

// reached сравнивает достигнутый статус с требуемым уровнем.
func reached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch got {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return want != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return want == rpc.CommitmentProcessed
	}
	return false
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)

// IsTransactionFailed сообщает, что транзакция исполнилась с ошибкой.
func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
