package repl

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#8B5CF6")
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#F8FAFC")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	inputEchoStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	resultStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	correctStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	incorrectStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	tagStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Faint(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)
)
