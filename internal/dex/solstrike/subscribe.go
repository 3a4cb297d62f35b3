// =============================
// File: internal/dex/solstrike/subscribe.go
// =============================
package solstrike

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Update is one notification of a subscribed account. Value is nil when the
// new data does not decode as the subscribed kind; the stream keeps going.
// A non-nil Err is terminal and is the last value before the channel closes.
// A record at its derived address whose bump drifted ends the stream with a
// *DerivationDriftError.
type Update[T any] struct {
	Slot     uint64
	Lamports uint64
	Raw      []byte
	Value    *T
	Err      error
}

func subscribe[T any](ctx context.Context, c *Client, kind AccountKind, address solana.PublicKey,
	decode func([]byte) (*T, bool), check bumpCheck[T]) (<-chan Update[T], error) {
	stream, err := c.transport.SubscribeAccount(ctx, address, c.subscribeCommitment)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s %s: %w", kind, address, err)
	}

	out := make(chan Update[T], c.subscriptionBuffer)
	log := c.logger.With(zap.String("kind", kind.String()), zap.String("address", address.String()))
	log.Debug("Subscribed to account")

	go func() {
		defer close(out)
		defer stream.Close()

		for {
			rec, err := stream.Recv(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Debug("Subscription cancelled")
					return
				}
				log.Warn("Subscription failed", zap.Error(err))
				select {
				case out <- Update[T]{Err: fmt.Errorf("subscribe %s %s: %w", kind, address, err)}:
				case <-ctx.Done():
				}
				return
			}

			v, ok := decode(rec.Data)
			c.metrics.RecordSubscriptionUpdate(kind.String(), ok)
			if !ok {
				log.Warn("Update does not decode", zap.Uint64("slot", rec.Slot), zap.Int("data_len", len(rec.Data)))
			}

			if ok && check != nil {
				if err := check(address, v); err != nil {
					log.Error("PDA bump drift", zap.Uint64("slot", rec.Slot), zap.Error(err))
					select {
					case out <- Update[T]{Slot: rec.Slot, Lamports: rec.Lamports, Raw: rec.Data,
						Err: fmt.Errorf("subscribe %s %s: %w", kind, address, err)}:
					case <-ctx.Done():
					}
					return
				}
			}

			select {
			case out <- Update[T]{Slot: rec.Slot, Lamports: rec.Lamports, Raw: rec.Data, Value: v}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// SubscribeGlobalConfig streams GlobalConfig updates at address until ctx is done.
func (c *Client) SubscribeGlobalConfig(ctx context.Context, address solana.PublicKey) (<-chan Update[GlobalConfig], error) {
	return subscribe(ctx, c, AccountKindGlobalConfig, address, DecodeGlobalConfig, c.globalConfigBump())
}

func (c *Client) SubscribeTreasury(ctx context.Context, address solana.PublicKey) (<-chan Update[Treasury], error) {
	return subscribe(ctx, c, AccountKindTreasury, address, DecodeTreasury, c.treasuryBump())
}

func (c *Client) SubscribeChipTokenPriceState(ctx context.Context, address solana.PublicKey) (<-chan Update[ChipTokenPriceState], error) {
	return subscribe(ctx, c, AccountKindChipTokenPriceState, address, DecodeChipTokenPriceState, c.tokenPriceBump)
}

func (c *Client) SubscribeClaimableRewards(ctx context.Context, address solana.PublicKey) (<-chan Update[ClaimableRewards], error) {
	return subscribe(ctx, c, AccountKindClaimableRewards, address, DecodeClaimableRewards, nil)
}
