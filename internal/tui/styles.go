package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("62")
	colorDim    = lipgloss.Color("241")
	colorGood   = lipgloss.Color("42")
	colorWarn   = lipgloss.Color("214")
	colorBad    = lipgloss.Color("196")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(colorAccent).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	panelHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	commanderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGood)
	errorStyle     = lipgloss.NewStyle().Foreground(colorBad)
	hintStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "working":
		return lipgloss.NewStyle().Foreground(colorWarn)
	case "offline":
		return lipgloss.NewStyle().Foreground(colorDim)
	default:
		return lipgloss.NewStyle().Foreground(colorGood)
	}
}
