package ui

import "github.com/charmbracelet/lipgloss"

var (
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	quitTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	dataStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	subscribeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Exported for command output.
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle   = errorStyle
	DimStyle     = dimStyle
	TitleStyle   = titleStyle
)
