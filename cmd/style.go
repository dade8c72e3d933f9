package cmd

import (
	"strings"

	"charm.land/lipgloss/v2"
)

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorSuccess = lipgloss.Color("#22C55E")
	colorError   = lipgloss.Color("#F43F5E")
	colorDim     = lipgloss.Color("#94A3B8")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	errStyle   = lipgloss.NewStyle().Foreground(colorError)
)

func rule(width int) string {
	return dimStyle.Render(strings.Repeat("─", width))
}

func mark(success bool) string {
	if success {
		return okStyle.Render("✓")
	}
	return errStyle.Render("✗")
}
