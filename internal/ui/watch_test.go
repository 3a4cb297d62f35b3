package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/economy"
)

func newTestWatch(t *testing.T) (WatchModel, *fakeSource) {
	t.Helper()
	src := newFakeSource(testState())
	bus := make(chan tea.Msg, 8)
	m := NewWatchModel(src, bus, solana.NewWallet().PublicKey(), economy.Pricing{Rule: economy.RoundFloor})
	return m, src
}

func update(t *testing.T, m WatchModel, msg tea.Msg) (WatchModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	wm, ok := next.(WatchModel)
	require.True(t, ok)
	return wm, cmd
}

func TestWatchRendersState(t *testing.T) {
	m, src := newTestWatch(t)

	msg := m.refreshCmd()()
	require.IsType(t, StateMsg{}, msg)
	m, _ = update(t, m, msg)

	price, ok := m.Price()
	require.True(t, ok)
	assert.Equal(t, uint64(10_000_000), price)

	view := m.View()
	assert.Contains(t, view, "10000000 lamports")
	assert.Contains(t, view, "0.010000000 SOL")
	assert.Contains(t, view, "chips per SOL")
	assert.Contains(t, view, "100")
	assert.Contains(t, view, "2.500000000 SOL")
	assert.Contains(t, view, src.state.TokenPrices[0].Value.TokenAddress.String())
	assert.NotContains(t, view, "!")
}

func TestWatchUninitialized(t *testing.T) {
	m, _ := newTestWatch(t)
	m, _ = update(t, m, StateMsg{State: &solstrike.State{}, At: time.Now()})

	_, ok := m.Price()
	assert.False(t, ok)
	view := m.View()
	assert.Contains(t, view, "global config not initialized")
	assert.Contains(t, view, "treasury not initialized")
	assert.Contains(t, view, "no token price records")
}

func TestWatchLiveUpdates(t *testing.T) {
	m, _ := newTestWatch(t)
	m, _ = update(t, m, StateMsg{State: testState(), At: time.Now()})

	m, cmd := update(t, m, GlobalConfigMsg{Update: solstrike.Update[solstrike.GlobalConfig]{
		Slot:  77,
		Value: &solstrike.GlobalConfig{SolChipPrice: 20_000_000, Bump: 254},
	}})
	assert.NotNil(t, cmd, "bus messages keep the listener alive")

	price, _ := m.Price()
	assert.Equal(t, uint64(20_000_000), price)
	assert.Equal(t, 1, m.price.Trend())
	assert.Contains(t, m.View(), "slot 77")

	m, _ = update(t, m, TreasuryMsg{Update: solstrike.Update[solstrike.Treasury]{Slot: 78, Lamports: 3_000_000_000}})
	assert.Contains(t, m.View(), "3.000000000 SOL")

	addr := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	m, _ = update(t, m, TokenPriceMsg{Address: addr, Update: solstrike.Update[solstrike.ChipTokenPriceState]{
		Slot:  79,
		Value: &solstrike.ChipTokenPriceState{TokenAddress: mint, TokenPrice: 42, Bump: 1},
	}})
	assert.Len(t, m.table.Rows(), 2)
	assert.Contains(t, m.View(), mint.String())
}

func TestWatchWarnings(t *testing.T) {
	m, _ := newTestWatch(t)
	m, _ = update(t, m, StateMsg{State: testState(), At: time.Now()})

	m, _ = update(t, m, GlobalConfigMsg{Update: solstrike.Update[solstrike.GlobalConfig]{
		Value: &solstrike.GlobalConfig{SolChipPrice: 10_000_000, Bump: 200},
	}})
	m, _ = update(t, m, GlobalConfigMsg{Update: solstrike.Update[solstrike.GlobalConfig]{}})
	require.Len(t, m.warnings, 2)
	assert.Contains(t, m.View(), "did not decode")

	m, _ = update(t, m, StreamClosedMsg{Stream: "treasury", Err: errors.New("socket reset")})
	assert.Contains(t, m.View(), "stream treasury closed: socket reset")

	m, _ = update(t, m, ErrorMsg{Title: "refresh", Error: errors.New("rpc down")})
	assert.Contains(t, m.View(), "refresh: rpc down")
}

func TestWatchKeys(t *testing.T) {
	m, _ := newTestWatch(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.IsType(t, StateMsg{}, cmd())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, m.help.ShowAll)
}

func TestWatchRefreshError(t *testing.T) {
	m, src := newTestWatch(t)
	src.stateErr = errors.New("boom")

	msg := m.refreshCmd()()
	require.IsType(t, ErrorMsg{}, msg)
	m, _ = update(t, m, msg)
	assert.Contains(t, m.View(), "boom")
}

func TestListenBusClosed(t *testing.T) {
	bus := make(chan tea.Msg)
	close(bus)
	assert.Nil(t, ListenBus(bus)())
}

type staticTail []string

func (s staticTail) Recent(limit int) []string {
	if limit > 0 && limit < len(s) {
		return s[len(s)-limit:]
	}
	return s
}

func TestWatchShowsLogTail(t *testing.T) {
	m, _ := newTestWatch(t)
	m = m.WithLogTail(staticTail{"l1", "l2", "l3", "l4", "l5", "Stream closed treasury"})

	view := m.View()
	assert.Contains(t, view, "Stream closed treasury")
	assert.NotContains(t, view, "l1")

	_, cmd := update(t, m, logTickMsg(time.Now()))
	assert.NotNil(t, cmd)
}

func TestWatchNavigatesTokenRows(t *testing.T) {
	m, _ := newTestWatch(t)
	state := testState()
	for i := 0; i < 2; i++ {
		state.TokenPrices = append(state.TokenPrices, solstrike.Keyed[solstrike.ChipTokenPriceState]{
			Address: solana.NewWallet().PublicKey(),
			Value:   &solstrike.ChipTokenPriceState{TokenAddress: solana.NewWallet().PublicKey(), TokenPrice: uint64(i + 1), Bump: 1},
		})
	}
	m, _ = update(t, m, StateMsg{State: state, At: time.Now()})
	require.Equal(t, 0, m.table.Cursor())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.table.Cursor())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, m.table.Cursor())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.table.Cursor(), "cursor stops at the last row")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.table.Cursor())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, m.table.Cursor())
}
