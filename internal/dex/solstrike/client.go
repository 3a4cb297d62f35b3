// =============================
// File: internal/dex/solstrike/client.go
// =============================
package solstrike

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain"
	"github.com/rovshanmuradov/solstrike-client/internal/utils/metrics"
)

// Transport is what the client needs from the node connection. Retries and
// reconnects are the transport's business.
type Transport interface {
	GetAccount(ctx context.Context, address solana.PublicKey, commitment rpc.CommitmentType) (*blockchain.AccountRecord, error)
	GetProgramAccounts(ctx context.Context, programID solana.PublicKey, prefix []byte, commitment rpc.CommitmentType) ([]*blockchain.AccountRecord, error)
	SubscribeAccount(ctx context.Context, address solana.PublicKey, commitment rpc.CommitmentType) (blockchain.AccountStream, error)
}

const defaultSubscriptionBuffer = 16

// Client reads and watches program accounts. It is safe for concurrent use.
type Client struct {
	transport Transport
	deriver   *Deriver
	logger    *zap.Logger
	metrics   *metrics.Collector

	scanCommitment      rpc.CommitmentType
	fetchCommitment     rpc.CommitmentType
	subscribeCommitment rpc.CommitmentType
	subscriptionBuffer  int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDeriver replaces the default deriver, e.g. for another deployment.
func WithDeriver(d *Deriver) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.deriver = d
		}
	}
}

func WithMetrics(m *metrics.Collector) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithCommitment sets one commitment for scans, fetches and subscriptions.
func WithCommitment(commitment rpc.CommitmentType) ClientOption {
	return func(c *Client) {
		if commitment == "" {
			return
		}
		c.scanCommitment = commitment
		c.fetchCommitment = commitment
		c.subscribeCommitment = commitment
	}
}

func WithSubscriptionBuffer(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.subscriptionBuffer = n
		}
	}
}

// NewClient builds a client over transport. Scans default to confirmed,
// single fetches and subscriptions to finalized.
func NewClient(transport Transport, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		transport:           transport,
		deriver:             NewDeriver(ProgramID, DefaultSeeds()),
		logger:              logger.Named("solstrike"),
		scanCommitment:      rpc.CommitmentConfirmed,
		fetchCommitment:     rpc.CommitmentFinalized,
		subscribeCommitment: rpc.CommitmentFinalized,
		subscriptionBuffer:  defaultSubscriptionBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deriver returns the deriver the client resolves addresses with.
func (c *Client) Deriver() *Deriver {
	return c.deriver
}

func (c *Client) decoded(kind AccountKind, ok bool) {
	c.metrics.RecordDecode(kind.String(), ok)
}

// fetchAt reads one account and decodes it as kind.
func fetchAt[T any](ctx context.Context, c *Client, kind AccountKind, address solana.PublicKey,
	decode func([]byte) (*T, bool)) (*T, *blockchain.AccountRecord, error) {
	rec, err := c.transport.GetAccount(ctx, address, c.fetchCommitment)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s %s: %w", kind, address, err)
	}
	v, ok := decode(rec.Data)
	c.decoded(kind, ok)
	if !ok {
		return nil, rec, fmt.Errorf("%w: %s is not a %s (found %s)",
			ErrAccountKindMismatch, address, kind, LookupAccountKind(rec.Data))
	}
	return v, rec, nil
}

// fetchDerived reads a PDA-addressed record and checks its stored bump
// against the derived one.
func fetchDerived[T any](ctx context.Context, c *Client, kind AccountKind,
	derive func() (solana.PublicKey, uint8, error),
	decode func([]byte) (*T, bool), bumpOf func(*T) uint8) (*Keyed[T], error) {
	address, bump, err := derive()
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", kind, err)
	}
	v, rec, err := fetchAt(ctx, c, kind, address, decode)
	if err != nil {
		return nil, err
	}
	if err := VerifyBump(kind, address, bump, bumpOf(v)); err != nil {
		c.logger.Error("PDA bump drift", zap.String("kind", kind.String()),
			zap.String("address", address.String()), zap.Error(err))
		return nil, err
	}
	return &Keyed[T]{Address: address, Lamports: rec.Lamports, Slot: rec.Slot, Value: v}, nil
}

// FetchGlobalConfigAt decodes the GlobalConfig stored at address.
func (c *Client) FetchGlobalConfigAt(ctx context.Context, address solana.PublicKey) (*GlobalConfig, error) {
	v, _, err := fetchAt(ctx, c, AccountKindGlobalConfig, address, DecodeGlobalConfig)
	return v, err
}

func (c *Client) FetchTreasuryAt(ctx context.Context, address solana.PublicKey) (*Treasury, error) {
	v, _, err := fetchAt(ctx, c, AccountKindTreasury, address, DecodeTreasury)
	return v, err
}

func (c *Client) FetchChipTokenPriceStateAt(ctx context.Context, address solana.PublicKey) (*ChipTokenPriceState, error) {
	v, _, err := fetchAt(ctx, c, AccountKindChipTokenPriceState, address, DecodeChipTokenPriceState)
	return v, err
}

func (c *Client) FetchClaimableRewardsAt(ctx context.Context, address solana.PublicKey) (*ClaimableRewards, error) {
	v, _, err := fetchAt(ctx, c, AccountKindClaimableRewards, address, DecodeClaimableRewards)
	return v, err
}

// FetchGlobalConfig reads the GlobalConfig singleton.
func (c *Client) FetchGlobalConfig(ctx context.Context) (*Keyed[GlobalConfig], error) {
	return fetchDerived(ctx, c, AccountKindGlobalConfig, c.deriver.GlobalConfig,
		DecodeGlobalConfig, func(v *GlobalConfig) uint8 { return v.Bump })
}

// FetchTreasury reads the treasury singleton together with its lamport balance.
func (c *Client) FetchTreasury(ctx context.Context) (*Keyed[Treasury], error) {
	return fetchDerived(ctx, c, AccountKindTreasury, c.deriver.Treasury,
		DecodeTreasury, func(v *Treasury) uint8 { return v.Bump })
}

// FetchChipTokenPriceState reads the price record of mint.
func (c *Client) FetchChipTokenPriceState(ctx context.Context, mint solana.PublicKey) (*Keyed[ChipTokenPriceState], error) {
	return fetchDerived(ctx, c, AccountKindChipTokenPriceState,
		func() (solana.PublicKey, uint8, error) { return c.deriver.ChipTokenPriceState(mint) },
		DecodeChipTokenPriceState, func(v *ChipTokenPriceState) uint8 { return v.Bump })
}

// FetchClaimableRewards reads the reward record of authority.
func (c *Client) FetchClaimableRewards(ctx context.Context, authority solana.PublicKey) (*Keyed[ClaimableRewards], error) {
	return fetchDerived(ctx, c, AccountKindClaimableRewards,
		func() (solana.PublicKey, uint8, error) { return c.deriver.ClaimableRewards(authority) },
		DecodeClaimableRewards, func(v *ClaimableRewards) uint8 { return v.Bump })
}

// bumpCheck verifies the bump stored in a record at address. It returns nil
// when address is not the PDA the record derives to.
type bumpCheck[T any] func(address solana.PublicKey, v *T) error

func singletonBump[T any](kind AccountKind, derive func() (solana.PublicKey, uint8, error), bumpOf func(*T) uint8) bumpCheck[T] {
	return func(address solana.PublicKey, v *T) error {
		derived, bump, err := derive()
		if err != nil || !derived.Equals(address) {
			return nil
		}
		return VerifyBump(kind, address, bump, bumpOf(v))
	}
}

// tokenPriceBump derives the expected address from the mint the record names.
func (c *Client) tokenPriceBump(address solana.PublicKey, v *ChipTokenPriceState) error {
	derived, bump, err := c.deriver.ChipTokenPriceState(v.TokenAddress)
	if err != nil || !derived.Equals(address) {
		return nil
	}
	return VerifyBump(AccountKindChipTokenPriceState, address, bump, v.Bump)
}

func (c *Client) globalConfigBump() bumpCheck[GlobalConfig] {
	return singletonBump(AccountKindGlobalConfig, c.deriver.GlobalConfig, func(v *GlobalConfig) uint8 { return v.Bump })
}

func (c *Client) treasuryBump() bumpCheck[Treasury] {
	return singletonBump(AccountKindTreasury, c.deriver.Treasury, func(v *Treasury) uint8 { return v.Bump })
}

// list scans every program account tagged with kind. Accounts that carry the
// tag but fail to decode are skipped and logged. A record sitting at its
// derived address with a different bump fails the whole scan.
func list[T any](ctx context.Context, c *Client, kind AccountKind, decode func([]byte) (*T, bool), check bumpCheck[T]) ([]Keyed[T], error) {
	start := time.Now()
	recs, err := c.transport.GetProgramAccounts(ctx, c.deriver.ProgramID(),
		kind.Discriminator().Bytes(), c.scanCommitment)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	out := make([]Keyed[T], 0, len(recs))
	for _, rec := range recs {
		v, ok := decode(rec.Data)
		c.decoded(kind, ok)
		if !ok {
			c.logger.Warn("Skipping undecodable account",
				zap.String("kind", kind.String()),
				zap.String("address", rec.Address.String()),
				zap.Int("data_len", len(rec.Data)))
			continue
		}
		if check != nil {
			if err := check(rec.Address, v); err != nil {
				c.logger.Error("PDA bump drift", zap.String("kind", kind.String()),
					zap.String("address", rec.Address.String()), zap.Error(err))
				return nil, fmt.Errorf("list %s: %w", kind, err)
			}
		}
		out = append(out, Keyed[T]{Address: rec.Address, Lamports: rec.Lamports, Slot: rec.Slot, Value: v})
	}

	c.logger.Debug("Listed program accounts",
		zap.String("kind", kind.String()),
		zap.Int("count", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}

func (c *Client) ListGlobalConfigs(ctx context.Context) ([]Keyed[GlobalConfig], error) {
	return list(ctx, c, AccountKindGlobalConfig, DecodeGlobalConfig, c.globalConfigBump())
}

func (c *Client) ListTreasuries(ctx context.Context) ([]Keyed[Treasury], error) {
	return list(ctx, c, AccountKindTreasury, DecodeTreasury, c.treasuryBump())
}

func (c *Client) ListChipTokenPriceStates(ctx context.Context) ([]Keyed[ChipTokenPriceState], error) {
	return list(ctx, c, AccountKindChipTokenPriceState, DecodeChipTokenPriceState, c.tokenPriceBump)
}

func (c *Client) ListClaimableRewards(ctx context.Context) ([]Keyed[ClaimableRewards], error) {
	// The record does not name its authority, so there is nothing to derive from.
	return list(ctx, c, AccountKindClaimableRewards, DecodeClaimableRewards, nil)
}

// State is a snapshot of the chip economy.
type State struct {
	Addresses    Addresses
	GlobalConfig *Keyed[GlobalConfig] // nil until init_global_config ran
	Treasury     *Keyed[Treasury]     // nil until initialize ran
	TokenPrices  []Keyed[ChipTokenPriceState]
}

// FetchState reads the singletons and every token price record concurrently.
// Missing singletons are reported as nil; any other failure aborts the snapshot.
func (c *Client) FetchState(ctx context.Context) (*State, error) {
	addrs, err := c.deriver.Singletons()
	if err != nil {
		return nil, err
	}
	state := &State{Addresses: *addrs}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.FetchGlobalConfig(gctx)
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		state.GlobalConfig = v
		return err
	})
	g.Go(func() error {
		v, err := c.FetchTreasury(gctx)
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		state.Treasury = v
		return err
	})
	g.Go(func() error {
		v, err := c.ListChipTokenPriceStates(gctx)
		state.TokenPrices = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	return state, nil
}
