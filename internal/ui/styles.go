package ui

import "github.com/charmbracelet/lipgloss"

const (
	HostIcon = "👑"
	YouMark  = " (你)"
)

var (
	DocStyle     = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	PromptStyle  = lipgloss.NewStyle().MarginTop(1)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	PhaseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	ContentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// TruncateName truncates a player name to maxLen runes.
func TruncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return name
}
