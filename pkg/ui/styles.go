package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/shellkode/kodechat/pkg/chat"
)

var (
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	BoldStyle   = lipgloss.NewStyle().Bold(true)
	AccentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	TitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
)

var modeColors = map[chat.Mode]lipgloss.Color{
	chat.ModeStandard:     lipgloss.Color("244"),
	chat.ModeResearch:     lipgloss.Color("39"),
	chat.ModeTroubleshoot: lipgloss.Color("208"),
	chat.ModeCode:         lipgloss.Color("77"),
}

// ModeBadge renders a colored mode label for status bars and lists.
func ModeBadge(mode chat.Mode) string {
	color, ok := modeColors[mode]
	if !ok {
		color = lipgloss.Color("244")
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render("[" + string(mode) + "]")
}
