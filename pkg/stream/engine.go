// Package stream drives one request/response streaming exchange against
// the backend and translates its events into session state mutations.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/api"
	"github.com/shellkode/kodechat/pkg/chat"
)

// errorPrefix is what the user sees in place of a response when the
// turn fails, with the failure detail appended.
const errorPrefix = "Sorry, I encountered an error: "

// maxLineSize bounds a single protocol record.
const maxLineSize = 1024 * 1024

// DefaultIdleTimeout finalizes a stream that stops producing bytes.
const DefaultIdleTimeout = 60 * time.Second

// Transport opens one streaming request and cancels one by id. The
// engine never builds HTTP itself.
type Transport interface {
	OpenMessageStream(ctx context.Context, req api.StreamRequest) (io.ReadCloser, error)
	StopStream(ctx context.Context, requestID string) error
}

// Engine is the stream ingestion engine. It owns no message state of its
// own: it issues mutation commands to the state machine by session id
// and message id, and keeps only the running text accumulator locally.
// One Engine runs at most one stream at a time; guarding against
// concurrent sends is the controller's job.
type Engine struct {
	state       *chat.State
	transport   Transport
	log         zerolog.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu         sync.Mutex
	active     bool
	sessionID  string
	messageID  string
	requestID  string
	cancelRead context.CancelFunc
}

// New creates an engine. idleTimeout <= 0 falls back to the default.
func New(state *chat.State, transport Transport, idleTimeout time.Duration, log zerolog.Logger) *Engine {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Engine{
		state:       state,
		transport:   transport,
		log:         log.With().Str("component", "stream").Logger(),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// SetClock overrides the time source. Used by tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Active reports whether a stream is currently running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Send appends the finalized user message, then streams the assistant
// response into a fresh placeholder. The user message is in state before
// Send returns, so the user always sees their own input even if the
// network fails instantly.
func (e *Engine) Send(ctx context.Context, req chat.SendRequest) (<-chan chat.StreamUpdate, error) {
	e.state.AppendMessage(req.SessionID, chat.NewUserMessage(req.Content, req.Mode, e.now()))
	return e.start(ctx, req)
}

// Rerun streams a response for previously sent content under a new mode.
// Only a new assistant message is created.
func (e *Engine) Rerun(ctx context.Context, req chat.SendRequest) (<-chan chat.StreamUpdate, error) {
	return e.start(ctx, req)
}

func (e *Engine) start(ctx context.Context, req chat.SendRequest) (<-chan chat.StreamUpdate, error) {
	placeholder := chat.NewAssistantPlaceholder(req.Mode, e.now())
	e.state.AppendMessage(req.SessionID, placeholder)
	e.state.SetActiveStream(placeholder.ID)

	readCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.active = true
	e.sessionID = req.SessionID
	e.messageID = placeholder.ID
	e.requestID = ""
	e.cancelRead = cancel
	e.mu.Unlock()

	updates := make(chan chat.StreamUpdate, 8)
	go func() {
		// Releases the reader goroutine once the consume loop returns.
		defer cancel()
		e.run(readCtx, req, placeholder.ID, updates)
	}()
	return updates, nil
}

// Stop cancels the active stream. The backend cancel call is
// fire-and-forget: local state is force-finalized immediately whether or
// not that call ever resolves.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	sessionID, messageID, requestID := e.sessionID, e.messageID, e.requestID
	cancel := e.cancelRead
	e.active = false
	e.mu.Unlock()

	e.finalizeMessage(sessionID, messageID, nil, nil)

	if requestID != "" {
		go func() {
			if err := e.transport.StopStream(ctx, requestID); err != nil {
				e.log.Warn().Err(err).Str("request_id", requestID).Msg("stop request failed")
			}
		}()
	}
	if cancel != nil {
		cancel()
	}
}

// run opens the transport call and consumes the event stream until a
// terminal event, a read failure, or an idle timeout.
func (e *Engine) run(ctx context.Context, req chat.SendRequest, messageID string, updates chan<- chat.StreamUpdate) {
	defer close(updates)

	body, err := e.transport.OpenMessageStream(ctx, api.StreamRequest{
		Content:   req.Content,
		Mode:      req.Mode,
		SessionID: req.SessionID,
		Code:      req.Code,
		Error:     req.ErrorContext,
	})
	if err != nil {
		e.failMessage(req.SessionID, messageID, err.Error())
		e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: req.SessionID, MessageID: messageID})
		return
	}
	defer body.Close()

	e.consume(ctx, req.SessionID, messageID, body, updates)
}

type readResult struct {
	line string
	err  error
}

func (e *Engine) consume(ctx context.Context, sessionID, messageID string, body io.Reader, updates chan<- chat.StreamUpdate) {
	lines := make(chan readResult)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- readResult{line: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- readResult{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	idle := time.NewTimer(e.idleTimeout)
	defer idle.Stop()

	// Accumulated response text. Engine-local by design: content events
	// append here, never re-read from state.
	var accumulated strings.Builder
	var lastCode *chat.CodeBlock

	for {
		select {
		case <-ctx.Done():
			// Stop() already force-finalized local state.
			return

		case <-idle.C:
			e.failMessage(sessionID, messageID, fmt.Sprintf("no response received for %s", e.idleTimeout))
			e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
			return

		case result, ok := <-lines:
			if !ok {
				// Stream ended without a terminal event: the connection
				// was cut mid-response.
				e.failMessage(sessionID, messageID, "response stream ended unexpectedly")
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
				return
			}
			if result.err != nil {
				e.failMessage(sessionID, messageID, result.err.Error())
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
				return
			}

			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(e.idleTimeout)

			line := result.line
			if !strings.HasPrefix(line, "data: ") {
				// Keep-alives and comments are expected noise.
				continue
			}
			event, err := api.ParseEvent([]byte(strings.TrimPrefix(line, "data: ")))
			if err != nil {
				e.log.Warn().Err(err).Msg("skipping malformed stream record")
				continue
			}
			if event == nil {
				continue
			}

			switch event := event.(type) {
			case api.StartEvent:
				e.setRequestID(event.RequestID)
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamStarted, SessionID: sessionID, MessageID: messageID})

			case api.ContentEvent:
				accumulated.WriteString(event.Content)
				e.patchContent(sessionID, messageID, accumulated.String())
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamContent, SessionID: sessionID, MessageID: messageID})

			case api.CodeBlockEvent:
				// Reconstruct the fenced block in the running text and
				// remember it for the completion enrichment.
				fmt.Fprintf(&accumulated, "```%s\n%s```", event.Language, event.Content)
				lastCode = &chat.CodeBlock{Language: event.Language, Content: event.Content}
				e.patchContent(sessionID, messageID, accumulated.String())
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamContent, SessionID: sessionID, MessageID: messageID})

			case api.ModeSuggestionEvent:
				suggestion := event.Suggestion
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamSuggestion, SessionID: sessionID, MessageID: messageID, Suggestion: &suggestion})

			case api.EndEvent:
				content := accumulated.String()
				e.clearActive(messageID)
				e.finalizeMessage(sessionID, messageID, &content, lastCode)
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
				return

			case api.StoppedEvent:
				// Cooperative cancel acknowledged by the server. The
				// accumulated text stays as-is, just no longer streaming.
				e.clearActive(messageID)
				e.finalizeMessage(sessionID, messageID, nil, nil)
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
				return

			case api.ErrorEvent:
				e.failMessage(sessionID, messageID, event.Message)
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
				return

			case api.DoneEvent:
				e.clearActive(messageID)
				e.finalizeMessage(sessionID, messageID, nil, nil)
				e.emit(updates, chat.StreamUpdate{Kind: chat.StreamFinished, SessionID: sessionID, MessageID: messageID})
				return
			}
		}
	}
}

// patchContent writes the full accumulator into the in-flight message.
// Skipped once the stream is no longer active (a late content event
// racing Stop must not resurrect a finalized message).
func (e *Engine) patchContent(sessionID, messageID, content string) {
	if !e.isCurrent(messageID) {
		return
	}
	now := e.now()
	e.state.PatchMessage(sessionID, messageID, chat.MessagePatch{
		Content:          &content,
		StreamingContent: &content,
		Timestamp:        &now,
	})
}

// finalizeMessage settles the message: streaming off, transient content
// cleared, optional final content and code enrichment applied.
func (e *Engine) finalizeMessage(sessionID, messageID string, content *string, code *chat.CodeBlock) {
	e.mu.Lock()
	if e.messageID == messageID {
		e.active = false
	}
	e.mu.Unlock()

	streaming := false
	empty := ""
	e.state.PatchMessage(sessionID, messageID, chat.MessagePatch{
		Content:          content,
		IsStreaming:      &streaming,
		StreamingContent: &empty,
		Code:             code,
	})
	if e.state.ActiveStreamID() == messageID {
		e.state.SetActiveStream("")
	}
}

// failMessage finalizes with the synthesized user-facing error string.
func (e *Engine) failMessage(sessionID, messageID, detail string) {
	if !e.isCurrent(messageID) {
		return
	}
	e.log.Error().Str("session_id", sessionID).Str("message_id", messageID).Str("detail", detail).Msg("stream failed")
	content := errorPrefix + detail
	e.clearActive(messageID)
	e.finalizeMessage(sessionID, messageID, &content, nil)
}

func (e *Engine) setRequestID(requestID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requestID = requestID
}

// isCurrent reports whether messageID is still the live stream target.
func (e *Engine) isCurrent(messageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active && e.messageID == messageID
}

func (e *Engine) clearActive(messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.messageID == messageID {
		e.active = false
	}
}

// emit never blocks forever: a consumer that went away must not wedge
// the read loop.
func (e *Engine) emit(updates chan<- chat.StreamUpdate, update chat.StreamUpdate) {
	select {
	case updates <- update:
	case <-time.After(5 * time.Second):
		e.log.Warn().Msg("dropping stream update: consumer not reading")
	}
}
