package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shellkode/kodechat/pkg/chat"
)

const (
	defaultWidth      = 100
	defaultHeight     = 40
	inputCharLimit    = 4000
	chromeHeight      = 6
	minViewportHeight = 10
	sessionIDShortLen = 8
)

// ChatProgram runs the interactive chat screen.
type ChatProgram struct {
	model chatModel
}

// NewChatProgram builds the chat screen over the controller. mode is
// the starting chat mode.
func NewChatProgram(controller *chat.Controller, mode chat.Mode) *ChatProgram {
	return &ChatProgram{model: newChatModel(controller, mode)}
}

// Run blocks until the user exits the chat.
func (p *ChatProgram) Run() error {
	program := tea.NewProgram(p.model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type chatModel struct {
	controller *chat.Controller
	renderer   *Renderer

	input textinput.Model
	view  viewport.Model
	spin  spinner.Model

	mode        chat.Mode
	streaming   bool
	lastContent string
	suggestion  *chat.ModeSuggestion
	err         error

	updates <-chan chat.StreamUpdate

	width  int
	height int
}

func newChatModel(controller *chat.Controller, mode chat.Mode) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask anything"
	input.Focus()
	input.CharLimit = inputCharLimit
	input.Width = defaultWidth - 3
	input.Prompt = ""

	view := viewport.New(defaultWidth, defaultHeight-chromeHeight)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if !mode.Valid() {
		mode = chat.ModeResearch
	}

	return chatModel{
		controller: controller,
		renderer:   NewRenderer(defaultWidth),
		input:      input,
		view:       view,
		spin:       spin,
		mode:       mode,
		width:      defaultWidth,
		height:     defaultHeight,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

type (
	streamOpenedMsg struct{ updates <-chan chat.StreamUpdate }
	streamUpdateMsg struct{ update chat.StreamUpdate }
	streamClosedMsg struct{}
	sendFailedMsg   struct{ err error }
)

// waitForUpdate re-arms itself after every message so the screen keeps
// redrawing while the stream runs.
func waitForUpdate(updates <-chan chat.StreamUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return streamClosedMsg{}
		}
		return streamUpdateMsg{update: update}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		model, keyCmds, quit := m.handleKey(msg)
		m = model
		cmds = append(cmds, keyCmds...)
		if quit {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewHeight := msg.Height - chromeHeight
		if viewHeight < minViewportHeight {
			viewHeight = minViewportHeight
		}
		m.view.Width = msg.Width
		m.view.Height = viewHeight
		m.input.Width = msg.Width - 3
		m.renderer = NewRenderer(msg.Width - 2)
		m.refresh()

	case streamOpenedMsg:
		m.updates = msg.updates
		m.refresh()
		cmds = append(cmds, waitForUpdate(m.updates))

	case streamUpdateMsg:
		m = m.applyUpdate(msg.update)
		cmds = append(cmds, waitForUpdate(m.updates))

	case streamClosedMsg:
		m.streaming = false
		m.updates = nil
		m.refresh()

	case sendFailedMsg:
		m.err = msg.err
		m.streaming = false
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	// The banner owns the keyboard while visible.
	if !m.streaming && m.suggestion == nil {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m chatModel) handleKey(msg tea.KeyMsg) (chatModel, []tea.Cmd, bool) {
	var cmds []tea.Cmd

	// The suggestion banner captures y/n while visible.
	if m.suggestion != nil && !m.streaming {
		switch msg.String() {
		case "y":
			suggestion := *m.suggestion
			m.suggestion = nil
			m.mode = suggestion.SuggestedMode
			cmds = append(cmds, m.startRerun(suggestion.SuggestedMode))
			return m, cmds, false
		case "n", "esc":
			m.suggestion = nil
			m.refresh()
			return m, cmds, false
		}
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.streaming {
			m.controller.StopStreaming(context.Background())
		}
		return m, cmds, true

	case tea.KeyEsc:
		if m.streaming {
			m.controller.StopStreaming(context.Background())
			return m, cmds, false
		}
		return m, cmds, true

	case tea.KeyEnter:
		if m.streaming {
			return m, cmds, false
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, cmds, false
		}
		m.input.Reset()
		m.err = nil
		m.suggestion = nil
		m.lastContent = text
		cmds = append(cmds, m.startSend(text))
		return m, cmds, false

	case tea.KeyTab:
		if !m.streaming {
			m.mode = nextMode(m.mode)
		}
		return m, cmds, false

	case tea.KeyCtrlN:
		if !m.streaming {
			m.controller.NewSession(m.mode)
			m.suggestion = nil
			m.err = nil
			m.refresh()
		}
		return m, cmds, false

	case tea.KeyCtrlR:
		if !m.streaming && m.lastContent != "" {
			cmds = append(cmds, m.startRegenerate())
		}
		return m, cmds, false

	case tea.KeyUp:
		m.view.LineUp(1)
	case tea.KeyDown:
		m.view.LineDown(1)
	case tea.KeyPgUp:
		m.view.ViewUp()
	case tea.KeyPgDown:
		m.view.ViewDown()
	}

	return m, cmds, false
}

func (m *chatModel) startSend(text string) tea.Cmd {
	m.streaming = true
	m.refresh()
	controller, mode := m.controller, m.mode
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		updates, err := controller.Send(context.Background(), text, mode, "", "")
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return streamOpenedMsg{updates: updates}
	})
}

func (m *chatModel) startRerun(mode chat.Mode) tea.Cmd {
	m.streaming = true
	m.refresh()
	controller, content := m.controller, m.lastContent
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		updates, err := controller.RerunWithMode(context.Background(), content, mode)
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return streamOpenedMsg{updates: updates}
	})
}

func (m *chatModel) startRegenerate() tea.Cmd {
	m.streaming = true
	m.refresh()
	controller, content := m.controller, m.lastContent
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		updates, err := controller.Regenerate(context.Background(), content)
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return streamOpenedMsg{updates: updates}
	})
}

func (m chatModel) applyUpdate(update chat.StreamUpdate) chatModel {
	switch update.Kind {
	case chat.StreamSuggestion:
		if update.Suggestion != nil {
			m.suggestion = update.Suggestion
		}
	case chat.StreamFinished:
		m.streaming = false
		m.renderer.Forget(update.MessageID)
	}
	m.refresh()
	return m
}

// refresh rebuilds the transcript from state, grouped into
// user/assistant pairs; an unanswered user message gets a pending slot.
// State is the single source of truth; the view never accumulates text
// of its own.
func (m *chatModel) refresh() {
	sess := m.controller.State().CurrentSession()
	if sess == nil {
		m.view.SetContent(DimStyle.Render("No conversation yet. Type a message to start one."))
		return
	}

	pairs := chat.Pairs(sess.Messages)
	var b strings.Builder
	for i, pair := range pairs {
		b.WriteString("\n")
		b.WriteString(BoldStyle.Render("You"))
		b.WriteString(" ")
		b.WriteString(ModeBadge(pair.User.Mode))
		b.WriteString("\n")
		b.WriteString(WrapText(pair.User.Content, m.width-2))
		b.WriteString("\n")

		b.WriteString("\n")
		b.WriteString(AccentStyle.Render("Assistant"))
		b.WriteString("\n")
		switch {
		case pair.Assistant == nil:
			if m.streaming && i == len(pairs)-1 {
				b.WriteString(m.spin.View())
				b.WriteString(DimStyle.Render(" Thinking..."))
			} else {
				b.WriteString(DimStyle.Render("No response."))
			}
		case pair.Assistant.IsStreaming:
			b.WriteString(WrapText(pair.Assistant.StreamingContent, m.width-2))
			b.WriteString(m.spin.View())
		default:
			b.WriteString(m.renderer.Markdown(pair.Assistant.ID, pair.Assistant.Content))
		}
		b.WriteString("\n")
		if pair.Assistant != nil && !pair.Assistant.IsStreaming && len(pair.Assistant.Sources) > 0 {
			b.WriteString(renderSources(pair.Assistant.Sources))
		}
	}

	if m.suggestion != nil {
		b.WriteString("\n")
		b.WriteString(SuggestionBanner(*m.suggestion))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

func renderSources(sources []chat.Source) string {
	var b strings.Builder
	b.WriteString(DimStyle.Render("Sources:"))
	b.WriteString("\n")
	for _, src := range sources {
		b.WriteString(DimStyle.Render(fmt.Sprintf("  • %s (%s)", src.Title, src.URL)))
		b.WriteString("\n")
	}
	return b.String()
}

func nextMode(mode chat.Mode) chat.Mode {
	for i, candidate := range chat.Modes {
		if candidate == mode {
			return chat.Modes[(i+1)%len(chat.Modes)]
		}
	}
	return chat.ModeResearch
}

func (m chatModel) View() string {
	sess := m.controller.State().CurrentSession()
	title := "new conversation"
	if sess != nil {
		title = sess.Title
		if len(sess.ID) >= sessionIDShortLen {
			title = fmt.Sprintf("%s %s", sess.Title, DimStyle.Render(sess.ID[:sessionIDShortLen]))
		}
	}

	status := fmt.Sprintf("%s  %s", ModeBadge(m.mode), DimStyle.Render(title))
	if m.streaming {
		status += DimStyle.Render("  • streaming, esc to stop")
	}

	var inputView string
	if m.streaming {
		inputView = DimStyle.Render("> waiting for response...")
	} else {
		inputView = PromptStyle.Render("> ") + m.input.View()
	}

	help := ""
	if !m.streaming {
		help = DimStyle.Render("enter send • tab mode • ctrl+n new • ctrl+r retry • esc quit")
	}

	parts := []string{status, "", m.view.View(), "", inputView}
	if help != "" {
		parts = append(parts, help)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
