package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/solstrike-client/internal/ui/style"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline is a mini graph of the last width price observations.
type Sparkline struct {
	data  []uint64
	width int
	color lipgloss.Color
}

// NewSparkline creates a new sparkline component
func NewSparkline(width int) *Sparkline {
	if width < 1 {
		width = 1
	}
	return &Sparkline{width: width, color: style.DefaultPalette().Primary}
}

// Push adds a point, dropping the oldest once the line is full.
func (s *Sparkline) Push(v uint64) {
	s.data = append(s.data, v)
	if len(s.data) > s.width {
		s.data = s.data[len(s.data)-s.width:]
	}
}

// Len returns the number of stored points.
func (s *Sparkline) Len() int { return len(s.data) }

// Last returns the latest point.
func (s *Sparkline) Last() (uint64, bool) {
	if len(s.data) == 0 {
		return 0, false
	}
	return s.data[len(s.data)-1], true
}

// Trend compares the two latest points: 1 up, -1 down, 0 flat.
func (s *Sparkline) Trend() int {
	n := len(s.data)
	if n < 2 {
		return 0
	}
	switch {
	case s.data[n-1] > s.data[n-2]:
		return 1
	case s.data[n-1] < s.data[n-2]:
		return -1
	}
	return 0
}

// Blocks renders the raw glyphs, padded to width.
func (s *Sparkline) Blocks() string {
	var b strings.Builder
	if len(s.data) > 0 {
		lo, hi := s.data[0], s.data[0]
		for _, v := range s.data {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		for _, v := range s.data {
			idx := 3 // flat line
			if hi > lo {
				idx = int(float64(v-lo) / float64(hi-lo) * float64(len(sparkChars)-1))
			}
			b.WriteRune(sparkChars[idx])
		}
	}
	for i := len(s.data); i < s.width; i++ {
		b.WriteRune(' ')
	}
	return b.String()
}

// View renders the sparkline with a trend arrow.
func (s *Sparkline) View() string {
	p := style.DefaultPalette()
	line := lipgloss.NewStyle().Foreground(s.color).Render(s.Blocks())
	switch s.Trend() {
	case 1:
		return line + " " + lipgloss.NewStyle().Foreground(p.PriceUp).Render("↗")
	case -1:
		return line + " " + lipgloss.NewStyle().Foreground(p.PriceDown).Render("↘")
	}
	return line + " " + lipgloss.NewStyle().Foreground(p.TextMuted).Render("→")
}
