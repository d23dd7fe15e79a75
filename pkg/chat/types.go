package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mode is a conversational behavior profile. It affects prompt framing on
// the backend and badge colors in the UI.
type Mode string

const (
	ModeStandard     Mode = "standard"
	ModeResearch     Mode = "research"
	ModeTroubleshoot Mode = "troubleshoot"
	ModeCode         Mode = "code"
)

// Modes lists every valid mode in display order.
var Modes = []Mode{ModeStandard, ModeResearch, ModeTroubleshoot, ModeCode}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeStandard, ModeResearch, ModeTroubleshoot, ModeCode:
		return true
	}
	return false
}

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode: %q", s)
	}
	return m, nil
}

// MessageType distinguishes who authored a message.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// Source is a reference attached to an assistant message on completion.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// CodeBlock is a structured code payload attached on completion.
type CodeBlock struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

// ModeSuggestion is the backend's hint that another mode would answer the
// current question better. The user may accept or dismiss it.
type ModeSuggestion struct {
	SuggestedMode Mode    `json:"suggested_mode"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
	Message       string  `json:"message"`
}

// Message is one conversational turn. Assistant messages are created empty
// and repeatedly patched while their stream is live; they become immutable
// the moment the stream reaches a terminal event.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Mode      Mode        `json:"mode"`
	Timestamp time.Time   `json:"timestamp"`

	// IsStreaming and StreamingContent exist only while content is being
	// appended. They are stripped before persistence and reset on load.
	IsStreaming      bool   `json:"isStreaming"`
	StreamingContent string `json:"streamingContent,omitempty"`

	Sources []Source   `json:"sources,omitempty"`
	Code    *CodeBlock `json:"code,omitempty"`
}

// NewUserMessage builds a finalized user message.
func NewUserMessage(content string, mode Mode, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Type:      MessageUser,
		Content:   content,
		Mode:      mode,
		Timestamp: now,
	}
}

// NewAssistantPlaceholder builds the empty streaming message that a new
// assistant turn accumulates into.
func NewAssistantPlaceholder(mode Mode, now time.Time) Message {
	return Message{
		ID:          uuid.NewString(),
		Type:        MessageAssistant,
		Mode:        mode,
		Timestamp:   now,
		IsStreaming: true,
	}
}

func (m Message) clone() Message {
	out := m
	if m.Sources != nil {
		out.Sources = make([]Source, len(m.Sources))
		copy(out.Sources, m.Sources)
	}
	if m.Code != nil {
		code := *m.Code
		out.Code = &code
	}
	return out
}

// Session is one conversation thread.
type Session struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// TimeLabel is the human relative-time label shown in the sidebar
	// ("Just now", "2 hours ago"). Recomputed on demand, not live-ticking.
	TimeLabel    string    `json:"timestamp"`
	Mode         Mode      `json:"mode"`
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"lastActivity"`
}

// NewSession builds an empty session with the default title.
func NewSession(mode Mode, now time.Time) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Title:        DefaultTitle,
		TimeLabel:    "Just now",
		Mode:         mode,
		Messages:     []Message{},
		LastActivity: now,
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		out.Messages[i] = m.clone()
	}
	return &out
}
