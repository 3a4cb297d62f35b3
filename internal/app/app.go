// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc/transaction"
	"github.com/rovshanmuradov/solstrike-client/internal/config"
	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/economy"
	"github.com/rovshanmuradov/solstrike-client/internal/storage"
	"github.com/rovshanmuradov/solstrike-client/internal/utils/metrics"
	"github.com/rovshanmuradov/solstrike-client/internal/wallet"
)

// ErrNoWallet is returned by operations that sign when no keypair is configured.
var ErrNoWallet = errors.New("no keypair configured")

// App wires configuration, transport, program client and signer together.
// Every chipctl command runs against one App.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	shutdown *ShutdownHandler

	chain      blockchain.Client
	program    *solstrike.Client
	deriver    *solstrike.Deriver
	programs   solstrike.ProgramAddresses
	pricing    economy.Pricing
	ledger     *economy.RewardLedger
	commitment rpc.CommitmentType

	wallet  *wallet.Wallet
	tx      *transaction.Manager
	txOpts  []func(*transaction.Config)
	journal storage.Journal // nil when journal_dsn is empty
}

type Option func(*App)

// WithChain replaces the RPC transport.
func WithChain(c blockchain.Client) Option {
	return func(a *App) { a.chain = c }
}

// WithWallet sets the signer instead of loading keypair_path.
func WithWallet(w *wallet.Wallet) Option {
	return func(a *App) { a.wallet = w }
}

// WithTransactionConfig adjusts the transaction manager settings.
func WithTransactionConfig(fn func(*transaction.Config)) Option {
	return func(a *App) { a.txOpts = append(a.txOpts, fn) }
}

func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	commitment, err := cfg.CommitmentType()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &App{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		metrics:    metrics.NewCollector(registry),
		shutdown:   NewShutdownHandler(logger.Named("shutdown"), 0),
		pricing:    cfg.Pricing(),
		ledger:     economy.NewRewardLedger(),
		commitment: commitment,
		programs:   solstrike.ProgramAddresses{TokenProgram: cfg.TokenProgramKey()}.Resolve(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.chain == nil {
		a.chain = solbc.NewClient(cfg.RPCURL, cfg.WebSocketURL, logger,
			solbc.WithMetrics(a.metrics),
			solbc.WithRetryPolicy(solbc.RetryPolicy{
				MaxTries:        uint(cfg.Retries) + 1,
				InitialInterval: cfg.RetryDelayDuration(),
				MaxInterval:     10 * cfg.RetryDelayDuration(),
			}),
			solbc.WithConfirmation(0, cfg.ConfirmTimeoutDuration()),
			solbc.WithRateLimit(cfg.RPCRateLimit, cfg.RPCBurst),
		)
	}

	programID := cfg.ProgramKey()
	if programID.IsZero() {
		programID = solstrike.ProgramID
	}
	a.deriver = solstrike.NewDeriver(programID, cfg.PDASeeds())
	a.program = solstrike.NewClient(a.chain, logger,
		solstrike.WithDeriver(a.deriver),
		solstrike.WithMetrics(a.metrics),
		solstrike.WithCommitment(commitment),
		solstrike.WithSubscriptionBuffer(cfg.SubscriptionBuffer),
	)

	if err := a.openJournal(); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return a, nil
}

func (a *App) Program() *solstrike.Client    { return a.program }
func (a *App) Deriver() *solstrike.Deriver   { return a.deriver }
func (a *App) Pricing() economy.Pricing      { return a.pricing }
func (a *App) ProgramID() solana.PublicKey   { return a.deriver.ProgramID() }
func (a *App) Ledger() *economy.RewardLedger { return a.ledger }

// Wallet loads the signer on first use.
func (a *App) Wallet() (*wallet.Wallet, error) {
	if a.wallet != nil {
		return a.wallet, nil
	}
	if a.cfg.KeypairPath == "" {
		return nil, ErrNoWallet
	}
	w, err := wallet.Load(a.cfg.KeypairPath)
	if err != nil {
		return nil, err
	}
	a.wallet = w
	a.logger.Info("Wallet loaded", zap.String("address", w.String()))
	return w, nil
}

// transactions returns the transaction manager, building it on first use.
func (a *App) transactions() (*transaction.Manager, *wallet.Wallet, error) {
	w, err := a.Wallet()
	if err != nil {
		return nil, nil, err
	}
	if a.tx == nil {
		cfg := transaction.DefaultConfig()
		cfg.MaxRetries = uint(a.cfg.Retries) + 1
		cfg.RetryDelay = a.cfg.RetryDelayDuration()
		cfg.ConfirmationTime = a.cfg.ConfirmTimeoutDuration()
		cfg.PriorityFee = a.cfg.PriorityFee
		cfg.ComputeUnits = a.cfg.ComputeUnits
		cfg.Commitment = a.commitment
		for _, fn := range a.txOpts {
			fn(&cfg)
		}
		a.tx = transaction.NewManager(a.chain, w, a.logger, cfg, a.metrics)
	}
	return a.tx, w, nil
}

// encodeOpts targets the configured deployment.
func (a *App) encodeOpts() []solstrike.Option {
	return []solstrike.Option{solstrike.WithProgramID(a.ProgramID())}
}

// ServeMetrics exposes the registry on metrics_addr until Close. It is a
// no-op when metrics_addr is empty.
func (a *App) ServeMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("Serving metrics", zap.String("addr", a.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	a.shutdown.AddFunc("metrics", func() error {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
}

// Close releases everything registered for shutdown.
func (a *App) Close() error {
	if err := a.shutdown.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
