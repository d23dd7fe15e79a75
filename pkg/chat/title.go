package chat

import "strings"

// DefaultTitle is the sentinel title a session carries until its first
// user message derives a real one.
const DefaultTitle = "New conversation"

const (
	titleMaxLen      = 50
	titleTruncateLen = 47
	titleEllipsis    = "…"
)

// DeriveTitle produces a session title from the first user message:
// trimmed content verbatim when it fits, otherwise the first 47 runes
// with an ellipsis.
func DeriveTitle(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= titleMaxLen {
		return content
	}
	return string(runes[:titleTruncateLen]) + titleEllipsis
}
