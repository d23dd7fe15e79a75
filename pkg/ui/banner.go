package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/shellkode/kodechat/pkg/chat"
)

var bannerStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("220")).
	Padding(0, 1)

// SuggestionBanner renders the backend's mode-switch hint with the
// accept/dismiss key hints. Purely advisory; nothing changes until the
// user accepts.
func SuggestionBanner(s chat.ModeSuggestion) string {
	msg := s.Message
	if msg == "" {
		msg = fmt.Sprintf("This looks like a %s question.", s.SuggestedMode)
	}
	body := fmt.Sprintf("%s %s\n%s",
		ModeBadge(s.SuggestedMode),
		msg,
		DimStyle.Render("y switch and retry • n dismiss"))
	return bannerStyle.Render(body)
}
