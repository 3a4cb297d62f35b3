package ui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

// Source is the part of solstrike.Client the watch screen reads from.
type Source interface {
	FetchState(ctx context.Context) (*solstrike.State, error)
	SubscribeGlobalConfig(ctx context.Context, address solana.PublicKey) (<-chan solstrike.Update[solstrike.GlobalConfig], error)
	SubscribeTreasury(ctx context.Context, address solana.PublicKey) (<-chan solstrike.Update[solstrike.Treasury], error)
	SubscribeChipTokenPriceState(ctx context.Context, address solana.PublicKey) (<-chan solstrike.Update[solstrike.ChipTokenPriceState], error)
}

// Feed pumps account subscriptions into the UI bus.
type Feed struct {
	source Source
	sender *UpdateSender
	logger *zap.Logger

	wg sync.WaitGroup
}

func NewFeed(source Source, sender *UpdateSender, logger *zap.Logger) *Feed {
	return &Feed{source: source, sender: sender, logger: logger.Named("feed")}
}

// Start subscribes to the singletons and to every token price record known
// in state. It fails if any subscription cannot be opened; streams that were
// already opened stop with ctx.
func (f *Feed) Start(ctx context.Context, state *solstrike.State) error {
	gc, err := f.source.SubscribeGlobalConfig(ctx, state.Addresses.GlobalConfig)
	if err != nil {
		return fmt.Errorf("watch global config: %w", err)
	}
	pump(f, ctx, "global_config", gc, func(u solstrike.Update[solstrike.GlobalConfig]) tea.Msg {
		return GlobalConfigMsg{Update: u}
	})

	tr, err := f.source.SubscribeTreasury(ctx, state.Addresses.Treasury)
	if err != nil {
		return fmt.Errorf("watch treasury: %w", err)
	}
	pump(f, ctx, "treasury", tr, func(u solstrike.Update[solstrike.Treasury]) tea.Msg {
		return TreasuryMsg{Update: u}
	})

	for _, tp := range state.TokenPrices {
		address := tp.Address
		ch, err := f.source.SubscribeChipTokenPriceState(ctx, address)
		if err != nil {
			return fmt.Errorf("watch token price %s: %w", address, err)
		}
		pump(f, ctx, "token_price:"+address.String(), ch, func(u solstrike.Update[solstrike.ChipTokenPriceState]) tea.Msg {
			return TokenPriceMsg{Address: address, Update: u}
		})
	}
	return nil
}

// Wait blocks until every pump has exited.
func (f *Feed) Wait() { f.wg.Wait() }

func pump[T any](f *Feed, ctx context.Context, name string, ch <-chan solstrike.Update[T], wrap func(solstrike.Update[T]) tea.Msg) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		var last error
		for u := range ch {
			if u.Err != nil {
				last = u.Err
				continue
			}
			f.sender.SendUpdate(wrap(u))
		}
		if last != nil {
			f.logger.Warn("Stream ended", zap.String("stream", name), zap.Error(last))
		} else {
			f.logger.Debug("Stream ended", zap.String("stream", name))
		}
		f.sender.SendCritical(StreamClosedMsg{Stream: name, Err: last}, ctx.Done())
	}()
}
