package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Styles used across the chipctl commands
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			PaddingBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6347")).
			Bold(true)
)

func title(s string) {
	fmt.Println(titleStyle.Render(s))
}

func field(label string, value interface{}) {
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(fmt.Sprint(value))))
}

func success(s string) {
	fmt.Println(okStyle.Render("✓ " + s))
}

func warn(s string) {
	fmt.Println(warningStyle.Render("! " + s))
}
