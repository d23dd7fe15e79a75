package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

// Renderer turns finalized assistant markdown into styled terminal
// output. Streaming text is shown raw; only settled messages pay the
// glamour rendering cost, and results are cached by message id.
type Renderer struct {
	term  *glamour.TermRenderer
	width int
	cache map[string]string
}

// NewRenderer builds a markdown renderer for the given wrap width.
func NewRenderer(width int) *Renderer {
	if width <= 0 || width > 120 {
		width = 100
	}
	r := &Renderer{width: width, cache: make(map[string]string)}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		r.term = term
	}
	return r
}

// Markdown renders content as markdown, keyed by id for caching. Falls
// back to the raw text if rendering fails.
func (r *Renderer) Markdown(id, content string) string {
	if out, ok := r.cache[id]; ok {
		return out
	}
	out := content
	if r.term != nil {
		if rendered, err := r.term.Render(content); err == nil {
			out = strings.TrimRight(rendered, "\n")
		}
	}
	if id != "" {
		r.cache[id] = out
	}
	return out
}

// Forget drops a cached rendering, used when a message changes.
func (r *Renderer) Forget(id string) { delete(r.cache, id) }

// WrapLine hard-wraps one line to maxWidth display columns, counting
// wide runes correctly.
func WrapLine(line string, maxWidth int) string {
	if maxWidth <= 10 || runewidth.StringWidth(line) <= maxWidth {
		return line
	}

	var result strings.Builder
	var current strings.Builder
	width := 0
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if width+w > maxWidth && width > 0 {
			result.WriteString(current.String())
			result.WriteString("\n")
			current.Reset()
			width = 0
		}
		current.WriteRune(r)
		width += w
	}
	if current.Len() > 0 {
		result.WriteString(current.String())
	}
	return result.String()
}

// WrapText applies WrapLine to every line of text.
func WrapText(text string, maxWidth int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = WrapLine(line, maxWidth)
	}
	return strings.Join(lines, "\n")
}
