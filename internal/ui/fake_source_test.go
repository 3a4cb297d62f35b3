package ui

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

type fakeSource struct {
	state    *solstrike.State
	stateErr error

	config   chan solstrike.Update[solstrike.GlobalConfig]
	treasury chan solstrike.Update[solstrike.Treasury]
	prices   map[solana.PublicKey]chan solstrike.Update[solstrike.ChipTokenPriceState]
}

func newFakeSource(state *solstrike.State) *fakeSource {
	f := &fakeSource{
		state:    state,
		config:   make(chan solstrike.Update[solstrike.GlobalConfig], 4),
		treasury: make(chan solstrike.Update[solstrike.Treasury], 4),
		prices:   make(map[solana.PublicKey]chan solstrike.Update[solstrike.ChipTokenPriceState]),
	}
	for _, tp := range state.TokenPrices {
		f.prices[tp.Address] = make(chan solstrike.Update[solstrike.ChipTokenPriceState], 4)
	}
	return f
}

func (f *fakeSource) FetchState(context.Context) (*solstrike.State, error) {
	return f.state, f.stateErr
}

func (f *fakeSource) SubscribeGlobalConfig(context.Context, solana.PublicKey) (<-chan solstrike.Update[solstrike.GlobalConfig], error) {
	return f.config, nil
}

func (f *fakeSource) SubscribeTreasury(context.Context, solana.PublicKey) (<-chan solstrike.Update[solstrike.Treasury], error) {
	return f.treasury, nil
}

func (f *fakeSource) SubscribeChipTokenPriceState(_ context.Context, address solana.PublicKey) (<-chan solstrike.Update[solstrike.ChipTokenPriceState], error) {
	ch, ok := f.prices[address]
	if !ok {
		return nil, errors.New("unknown token price record")
	}
	return ch, nil
}

func testState() *solstrike.State {
	mint := solana.NewWallet().PublicKey()
	return &solstrike.State{
		Addresses: solstrike.Addresses{
			GlobalConfig:     solana.NewWallet().PublicKey(),
			GlobalConfigBump: 254,
			Treasury:         solana.NewWallet().PublicKey(),
		},
		GlobalConfig: &solstrike.Keyed[solstrike.GlobalConfig]{
			Value: &solstrike.GlobalConfig{SolChipPrice: 10_000_000, Bump: 254},
		},
		Treasury: &solstrike.Keyed[solstrike.Treasury]{
			Lamports: 2_500_000_000,
			Value:    &solstrike.Treasury{Bump: 253},
		},
		TokenPrices: []solstrike.Keyed[solstrike.ChipTokenPriceState]{{
			Address: solana.NewWallet().PublicKey(),
			Value:   &solstrike.ChipTokenPriceState{TokenAddress: mint, TokenPrice: 2_500_000, Bump: 250},
		}},
	}
}
