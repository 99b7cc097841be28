package ui

import "github.com/charmbracelet/lipgloss"

var (
	brandBlue = lipgloss.Color("#1E6FD9")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#828282"))

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(brandBlue)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(brandBlue).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)
