package chat

import "context"

// SendRequest carries everything needed to start one streaming turn.
// Code and ErrorContext are only populated in troubleshoot mode.
type SendRequest struct {
	Content      string
	Mode         Mode
	SessionID    string
	Code         string
	ErrorContext string
}

// StreamUpdateKind tags the notifications a stream emits while running.
type StreamUpdateKind int

const (
	// StreamStarted: the backend acknowledged the request.
	StreamStarted StreamUpdateKind = iota
	// StreamContent: the in-flight assistant message grew; consumers
	// should re-read state.
	StreamContent
	// StreamSuggestion: the backend suggests switching mode.
	StreamSuggestion
	// StreamFinished: the turn reached a terminal state (finalized,
	// errored, or cancelled); the message is immutable from here on.
	StreamFinished
)

// StreamUpdate is a wake-up signal for presentation consumers. State
// remains the single source of truth; updates only say what changed and
// where to look.
type StreamUpdate struct {
	Kind       StreamUpdateKind
	SessionID  string
	MessageID  string
	Suggestion *ModeSuggestion
}

// Streamer drives one request/response streaming exchange against the
// backend and translates it into State mutations. Implemented by the
// stream package; the controller only sees this surface.
type Streamer interface {
	// Send appends the user message and assistant placeholder, then
	// streams the response. The returned channel closes after the
	// terminal update.
	Send(ctx context.Context, req SendRequest) (<-chan StreamUpdate, error)
	// Rerun streams a response for previously sent content under a new
	// mode without re-appending the user message.
	Rerun(ctx context.Context, req SendRequest) (<-chan StreamUpdate, error)
	// Stop cancels the active stream. Local state is finalized
	// immediately regardless of whether the backend acknowledges.
	Stop(ctx context.Context)
	// Active reports whether a stream is currently running.
	Active() bool
}
