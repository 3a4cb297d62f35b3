package style

import "github.com/charmbracelet/lipgloss"

var (
	Cyan    = lipgloss.Color("#00E5FF") // primary highlight
	Magenta = lipgloss.Color("#FF1B6B")
	Yellow  = lipgloss.Color("#FFB500")
	Green   = lipgloss.Color("#2AFFAA")
	Red     = lipgloss.Color("#FF5555")
	Blue    = lipgloss.Color("#3B82F6")

	Base03 = lipgloss.Color("#1B1D23")
	Base01 = lipgloss.Color("#6C7280")
	Base2  = lipgloss.Color("#ECEFF4")
	Base1  = lipgloss.Color("#B4BCC8")
)

// Palette provides a centralized color management
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Info      lipgloss.Color

	Background    lipgloss.Color
	Text          lipgloss.Color
	TextMuted     lipgloss.Color
	TextSecondary lipgloss.Color

	// PriceUp/PriceDown окрашивают изменения цены чипа.
	PriceUp   lipgloss.Color
	PriceDown lipgloss.Color
}

// DefaultPalette returns the default color palette
func DefaultPalette() Palette {
	return Palette{
		Primary:   Cyan,
		Secondary: Magenta,
		Success:   Green,
		Error:     Red,
		Warning:   Yellow,
		Info:      Blue,

		Background:    Base03,
		Text:          Base2,
		TextMuted:     Base01,
		TextSecondary: Base1,

		PriceUp:   Red, // дороже для покупателя
		PriceDown: Green,
	}
}

// Styles are the lipgloss styles of the watch screen.
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Good    lipgloss.Style
	Bad     lipgloss.Style
	Warning lipgloss.Style
}

// NewStyles creates watch styles with the given palette
func NewStyles(p Palette) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(p.Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Primary).
			Padding(0, 2),
		Title: lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Secondary).
			Padding(0, 1),
		Label:   lipgloss.NewStyle().Foreground(p.TextSecondary),
		Value:   lipgloss.NewStyle().Foreground(p.Text).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(p.TextMuted),
		Good:    lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		Bad:     lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
	}
}
