package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/solstrike-client/internal/dex/solstrike"
	"github.com/rovshanmuradov/solstrike-client/internal/economy"
	"github.com/rovshanmuradov/solstrike-client/internal/ui/component"
	"github.com/rovshanmuradov/solstrike-client/internal/ui/style"
)

const (
	sparklineWidth = 32
	fetchTimeout   = 15 * time.Second
	logTailLines   = 5
	logTailEvery   = time.Second
)

// LogTail supplies the most recent log lines, oldest first.
type LogTail interface {
	Recent(limit int) []string
}

type logTickMsg time.Time

// WatchModel is a live view of the chip economy: the SOL chip price with
// its recent history, the treasury balance and every token price record.
type WatchModel struct {
	source  Source
	bus     <-chan tea.Msg
	pricing economy.Pricing
	program solana.PublicKey

	keys   KeyMap
	help   help.Model
	styles style.Styles
	table  table.Model
	price  *component.Sparkline

	addrs    solstrike.Addresses
	config   *solstrike.GlobalConfig
	treasury uint64
	haveTrs  bool
	tokens   map[solana.PublicKey]solstrike.ChipTokenPriceState
	slot     uint64
	closed   map[string]error
	warnings []string
	err      error
	updated  time.Time
	logs     LogTail

	width int
}

// NewWatchModel builds the screen. bus is the channel a Feed writes to.
func NewWatchModel(source Source, bus <-chan tea.Msg, program solana.PublicKey, pricing economy.Pricing) WatchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Token mint", Width: 44},
			{Title: "Price (base units/chip)", Width: 24},
			{Title: "Bump", Width: 5},
		}),
		table.WithHeight(6),
		table.WithFocused(true),
	)

	return WatchModel{
		source:  source,
		bus:     bus,
		pricing: pricing,
		program: program,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  style.NewStyles(style.DefaultPalette()),
		table:   t,
		price:   component.NewSparkline(sparklineWidth),
		tokens:  make(map[solana.PublicKey]solstrike.ChipTokenPriceState),
		closed:  make(map[string]error),
	}
}

// WithLogTail shows the last log lines under the table.
func (m WatchModel) WithLogTail(t LogTail) WatchModel {
	m.logs = t
	return m
}

func (m WatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshCmd(), ListenBus(m.bus)}
	if m.logs != nil {
		cmds = append(cmds, logTick())
	}
	return tea.Batch(cmds...)
}

func logTick() tea.Cmd {
	return tea.Tick(logTailEvery, func(t time.Time) tea.Msg { return logTickMsg(t) })
}

func (m WatchModel) refreshCmd() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		state, err := source.FetchState(ctx)
		if err != nil {
			return ErrorMsg{Error: err, Title: "refresh"}
		}
		return StateMsg{State: state, At: time.Now()}
	}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refreshCmd()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.table.MoveUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.table.MoveDown(1)
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case StateMsg:
		m.applyState(msg.State)
		m.updated = msg.At
		m.err = nil
		return m, nil

	case ErrorMsg:
		m.err = fmt.Errorf("%s: %w", msg.Title, msg.Error)
		return m, nil

	case logTickMsg:
		// Перерисовка подтянет свежие строки лога.
		return m, logTick()

	// Everything below arrives on the bus; keep listening.
	case GlobalConfigMsg:
		m.observeSlot(msg.Update.Slot)
		if msg.Update.Value == nil {
			m.warn("global config notification did not decode")
		} else {
			m.setConfig(msg.Update.Value)
		}
		return m, ListenBus(m.bus)

	case TreasuryMsg:
		m.observeSlot(msg.Update.Slot)
		m.treasury = msg.Update.Lamports
		m.haveTrs = true
		return m, ListenBus(m.bus)

	case TokenPriceMsg:
		m.observeSlot(msg.Update.Slot)
		if msg.Update.Value == nil {
			m.warn("token price notification for " + msg.Address.String() + " did not decode")
		} else {
			m.tokens[msg.Address] = *msg.Update.Value
			m.syncRows()
		}
		return m, ListenBus(m.bus)

	case StreamClosedMsg:
		m.closed[msg.Stream] = msg.Err
		return m, ListenBus(m.bus)
	}
	return m, nil
}

func (m *WatchModel) applyState(s *solstrike.State) {
	if s == nil {
		return
	}
	m.addrs = s.Addresses
	if s.GlobalConfig != nil {
		m.setConfig(s.GlobalConfig.Value)
	}
	if s.Treasury != nil {
		m.treasury = s.Treasury.Lamports
		m.haveTrs = true
	}
	for _, tp := range s.TokenPrices {
		m.tokens[tp.Address] = *tp.Value
	}
	m.syncRows()
}

func (m *WatchModel) setConfig(cfg *solstrike.GlobalConfig) {
	if err := economy.ValidateGlobalConfig(cfg); err != nil {
		m.warn(err.Error())
	}
	if !m.addrs.GlobalConfig.IsZero() {
		if err := solstrike.VerifyBump(solstrike.AccountKindGlobalConfig, m.addrs.GlobalConfig, m.addrs.GlobalConfigBump, cfg.Bump); err != nil {
			m.warn(err.Error())
		}
	}
	if last, ok := m.price.Last(); !ok || last != cfg.SolChipPrice {
		m.price.Push(cfg.SolChipPrice)
	}
	c := *cfg
	m.config = &c
}

func (m *WatchModel) observeSlot(slot uint64) {
	m.slot = max(m.slot, slot)
	m.updated = time.Now()
}

// warn keeps the last few distinct warnings.
func (m *WatchModel) warn(s string) {
	for _, w := range m.warnings {
		if w == s {
			return
		}
	}
	m.warnings = append(m.warnings, s)
	if len(m.warnings) > 3 {
		m.warnings = m.warnings[1:]
	}
}

func (m *WatchModel) syncRows() {
	keys := make([]solana.PublicKey, 0, len(m.tokens))
	for k := range m.tokens {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	rows := make([]table.Row, 0, len(keys))
	for _, k := range keys {
		tp := m.tokens[k]
		rows = append(rows, table.Row{tp.TokenAddress.String(), fmt.Sprintf("%d", tp.TokenPrice), fmt.Sprintf("%d", tp.Bump)})
	}
	m.table.SetRows(rows)
}

// Price returns the latest SOL chip price seen, or false before the first.
func (m WatchModel) Price() (uint64, bool) {
	if m.config == nil {
		return 0, false
	}
	return m.config.SolChipPrice, true
}

// formatSOL renders lamports as an exact decimal SOL amount.
func formatSOL(lamports uint64) string {
	return fmt.Sprintf("%d.%09d SOL", lamports/solana.LAMPORTS_PER_SOL, lamports%solana.LAMPORTS_PER_SOL)
}

func (m WatchModel) View() string {
	s := m.styles
	var b strings.Builder

	header := s.Title.Render("sol_strike") + "  " + s.Muted.Render("program "+m.program.String())
	if m.slot > 0 {
		header += "  " + s.Label.Render(fmt.Sprintf("slot %d", m.slot))
	}
	b.WriteString(s.Header.Render(header))
	b.WriteString("\n")

	var price string
	if m.config == nil {
		price = s.Warning.Render("global config not initialized")
	} else {
		lines := []string{
			s.Label.Render("SOL chip price ") + s.Value.Render(fmt.Sprintf("%d lamports", m.config.SolChipPrice)) +
				s.Muted.Render(" ("+formatSOL(m.config.SolChipPrice)+")"),
		}
		if chips, err := m.pricing.ChipsForLamports(solana.LAMPORTS_PER_SOL, m.config.SolChipPrice); err == nil {
			lines = append(lines, s.Label.Render("chips per SOL  ")+s.Value.Render(fmt.Sprintf("%d", chips))+
				s.Muted.Render(" ("+m.pricing.Rule.String()+")"))
		}
		lines = append(lines, m.price.View())
		price = strings.Join(lines, "\n")
	}

	treasury := s.Warning.Render("treasury not initialized")
	if m.haveTrs {
		treasury = s.Label.Render("treasury ") + s.Value.Render(formatSOL(m.treasury))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.Panel.Render(price), " ", s.Panel.Render(treasury)))
	b.WriteString("\n")

	if len(m.tokens) == 0 {
		b.WriteString(s.Muted.Render("no token price records"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if len(m.closed) > 0 {
		names := make([]string, 0, len(m.closed))
		for name := range m.closed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			line := "stream " + name + " closed"
			if err := m.closed[name]; err != nil {
				line += ": " + err.Error()
			}
			b.WriteString(s.Bad.Render(line) + "\n")
		}
	}
	for _, w := range m.warnings {
		b.WriteString(s.Warning.Render("! "+w) + "\n")
	}
	if m.err != nil {
		b.WriteString(s.Bad.Render(m.err.Error()) + "\n")
	}
	if !m.updated.IsZero() {
		b.WriteString(s.Muted.Render("updated "+m.updated.Format("15:04:05")) + "\n")
	}
	if m.logs != nil {
		for _, line := range m.logs.Recent(logTailLines) {
			b.WriteString(s.Muted.Render(truncate(line, m.width)) + "\n")
		}
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	return s[:width]
}
