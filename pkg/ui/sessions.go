package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/shellkode/kodechat/pkg/chat"
	"github.com/shellkode/kodechat/pkg/store"
)

const listTitleWidth = 40

// SessionRow is one line of the session list output.
type SessionRow struct {
	ID       string
	Title    string
	Mode     chat.Mode
	Label    string
	Messages int
}

// LocalRows converts locally stored sessions for listing.
func LocalRows(sessions []*chat.Session) []SessionRow {
	rows := make([]SessionRow, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, SessionRow{
			ID:       sess.ID,
			Title:    sess.Title,
			Mode:     sess.Mode,
			Label:    sess.TimeLabel,
			Messages: len(sess.Messages),
		})
	}
	return rows
}

// ArchiveRows converts synced backend sessions for listing.
func ArchiveRows(sessions []store.ArchivedSession) []SessionRow {
	rows := make([]SessionRow, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, SessionRow{
			ID:       sess.ID,
			Title:    sess.Title,
			Mode:     sess.Mode,
			Label:    sess.UpdatedAt.Format("2006-01-02 15:04"),
			Messages: sess.MessageCount,
		})
	}
	return rows
}

// RenderSessionList formats rows as an aligned terminal table.
func RenderSessionList(rows []SessionRow) string {
	if len(rows) == 0 {
		return DimStyle.Render("No sessions.")
	}

	var b strings.Builder
	for _, row := range rows {
		title := runewidth.Truncate(row.Title, listTitleWidth, "…")
		title = runewidth.FillRight(title, listTitleWidth)
		b.WriteString(fmt.Sprintf("%s  %s %s  %s  %s\n",
			DimStyle.Render(shortID(row.ID)),
			BoldStyle.Render(title),
			ModeBadge(row.Mode),
			DimStyle.Render(fmt.Sprintf("%d msg", row.Messages)),
			DimStyle.Render(row.Label)))
	}
	return b.String()
}

// RenderTranscript formats a stored transcript for non-interactive
// display, grouped into user/assistant pairs.
func RenderTranscript(messages []chat.Message, width int) string {
	renderer := NewRenderer(width)
	var b strings.Builder
	for _, pair := range chat.Pairs(messages) {
		b.WriteString(BoldStyle.Render("You"))
		b.WriteString("\n")
		b.WriteString(pair.User.Content)
		b.WriteString("\n\n")
		b.WriteString(AccentStyle.Render("Assistant"))
		b.WriteString("\n")
		if pair.Assistant == nil {
			b.WriteString(DimStyle.Render("No response."))
		} else {
			b.WriteString(renderer.Markdown(pair.Assistant.ID, pair.Assistant.Content))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
