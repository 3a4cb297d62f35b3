package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
)

// Tea message types for the watch screen

// StateMsg carries a full snapshot, fetched on start and on refresh.
type StateMsg struct {
	State *solstrike.State
	At    time.Time
}

// GlobalConfigMsg is a live GlobalConfig notification.
type GlobalConfigMsg struct {
	Update solstrike.Update[solstrike.GlobalConfig]
}

// TreasuryMsg is a live Treasury notification.
type TreasuryMsg struct {
	Update solstrike.Update[solstrike.Treasury]
}

// TokenPriceMsg is a live ChipTokenPriceState notification.
type TokenPriceMsg struct {
	Address solana.PublicKey
	Update  solstrike.Update[solstrike.ChipTokenPriceState]
}

// StreamClosedMsg reports that a subscription ended.
type StreamClosedMsg struct {
	Stream string
	Err    error
}

// ErrorMsg represents error conditions
type ErrorMsg struct {
	Error error
	Title string
}

// ListenBus returns a tea.Cmd that waits for the next message on bus.
// A closed bus yields nil, which bubbletea ignores.
func ListenBus(bus <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-bus
		if !ok {
			return nil
		}
		return msg
	}
}
