package chat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrStreamActive is returned when a send is attempted while another
// stream is still running. One turn at a time.
var ErrStreamActive = errors.New("a response is already streaming")

// SessionStore is the durability collaborator. Load is called once at
// startup; Persist overwrites the whole stored collection after every
// settled mutation. Persistence failures never propagate past the
// controller - in-memory state stays authoritative.
type SessionStore interface {
	Load() ([]*Session, error)
	Persist(sessions []*Session) error
}

// Controller orchestrates session lifecycle: creation, title derivation,
// send/rerun/regenerate flows, and store<->state coordination.
type Controller struct {
	state    *State
	store    SessionStore
	streamer Streamer
	log      zerolog.Logger

	defaultMode    Mode
	now            func() time.Time
	forwardTimeout time.Duration
}

// NewController wires the controller. store may be nil (no persistence),
// which the UI uses for throwaway sessions in tests.
func NewController(state *State, store SessionStore, streamer Streamer, defaultMode Mode, log zerolog.Logger) *Controller {
	if !defaultMode.Valid() {
		defaultMode = ModeResearch
	}
	return &Controller{
		state:          state,
		store:          store,
		streamer:       streamer,
		log:            log,
		defaultMode:    defaultMode,
		now:            time.Now,
		forwardTimeout: 5 * time.Second,
	}
}

// SetClock overrides the time source. Used by tests.
func (c *Controller) SetClock(now func() time.Time) { c.now = now }

// State exposes the underlying state machine for read-side consumers.
func (c *Controller) State() *State { return c.state }

// LoadFromStore replaces in-memory sessions with the persisted
// collection. A load failure is logged and leaves state empty; the app
// must stay usable without history.
func (c *Controller) LoadFromStore() {
	if c.store == nil {
		return
	}
	sessions, err := c.store.Load()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to load chat sessions")
		return
	}
	if len(sessions) > 0 {
		c.state.LoadSessions(sessions)
	}
}

// NewSession creates an empty session, selects it, and returns its id.
func (c *Controller) NewSession(mode Mode) string {
	if !mode.Valid() {
		mode = c.defaultMode
	}
	sess := NewSession(mode, c.now())
	c.state.CreateSession(sess)
	c.state.SelectSession(sess.ID)
	return sess.ID
}

// Send starts one streaming turn in the selected session, creating and
// selecting a session first when none is active. The user message is
// visible in state before Send returns, even if the network fails
// instantly. Returns ErrStreamActive while another stream runs.
func (c *Controller) Send(ctx context.Context, content string, mode Mode, code, errorContext string) (<-chan StreamUpdate, error) {
	if c.streamer.Active() {
		return nil, ErrStreamActive
	}
	if !mode.Valid() {
		mode = c.defaultMode
	}

	sessionID := c.state.CurrentSessionID()
	if _, ok := c.state.Session(sessionID); sessionID == "" || !ok {
		sessionID = c.NewSession(mode)
	}

	updates, err := c.streamer.Send(ctx, SendRequest{
		Content:      content,
		Mode:         mode,
		SessionID:    sessionID,
		Code:         code,
		ErrorContext: errorContext,
	})
	if err != nil {
		return nil, err
	}

	c.deriveTitle(sessionID, content)
	c.persist()
	return c.forward(updates), nil
}

// RerunWithMode re-issues prior user content under a new mode as a fresh
// assistant stream. The original user message is not re-appended; the
// session's mode follows the switch.
func (c *Controller) RerunWithMode(ctx context.Context, content string, newMode Mode) (<-chan StreamUpdate, error) {
	if c.streamer.Active() {
		return nil, ErrStreamActive
	}
	if !newMode.Valid() {
		return nil, errors.New("invalid mode")
	}
	sessionID := c.state.CurrentSessionID()
	if _, ok := c.state.Session(sessionID); !ok {
		return nil, errors.New("no active session")
	}

	updates, err := c.streamer.Rerun(ctx, SendRequest{
		Content:   content,
		Mode:      newMode,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	c.state.UpdateSessionMeta(sessionID, SessionPatch{Mode: &newMode})
	return c.forward(updates), nil
}

// Regenerate re-issues prior user content under the session's current
// mode, appending a brand-new turn. Earlier messages are left untouched.
func (c *Controller) Regenerate(ctx context.Context, content string) (<-chan StreamUpdate, error) {
	mode := c.defaultMode
	if sess := c.state.CurrentSession(); sess != nil {
		mode = sess.Mode
	}
	return c.Send(ctx, content, mode, "", "")
}

// StopStreaming cancels the active stream, if any.
func (c *Controller) StopStreaming(ctx context.Context) {
	c.streamer.Stop(ctx)
	c.persist()
}

// DeleteSession removes a session from state and re-persists.
func (c *Controller) DeleteSession(sessionID string) {
	c.state.DeleteSession(sessionID)
	c.persist()
}

// Select changes the current session and refreshes its relative-time
// label.
func (c *Controller) Select(sessionID string) {
	c.state.SelectSession(sessionID)
	c.RefreshTimeLabel(sessionID)
}

// RefreshTimeLabel recomputes the session's "N min ago" label from its
// last activity.
func (c *Controller) RefreshTimeLabel(sessionID string) {
	sess, ok := c.state.Session(sessionID)
	if !ok {
		return
	}
	label := RelativeLabel(sess.LastActivity, c.now())
	c.state.UpdateSessionMeta(sessionID, SessionPatch{TimeLabel: &label})
}

// deriveTitle sets the title from the first user message, at most once
// per session: a session that already carries a non-default title keeps
// it forever.
func (c *Controller) deriveTitle(sessionID, content string) {
	sess, ok := c.state.Session(sessionID)
	if !ok || sess.Title != DefaultTitle {
		return
	}
	if title := DeriveTitle(content); title != "" {
		c.state.RenameSession(sessionID, title)
	}
}

// forward relays stream updates and persists once the turn settles. A
// consumer that stopped draining must not wedge the relay: a send that
// waits too long is dropped so the engine side keeps flowing.
func (c *Controller) forward(in <-chan StreamUpdate) <-chan StreamUpdate {
	out := make(chan StreamUpdate, 8)
	go func() {
		defer close(out)
		for update := range in {
			if update.Kind == StreamFinished {
				c.persist()
			}
			select {
			case out <- update:
			case <-time.After(c.forwardTimeout):
				c.log.Warn().Msg("dropping stream update: consumer not reading")
			}
		}
	}()
	return out
}

// persist writes the streaming-stripped projection of every session.
// Failures are logged and swallowed; in-memory state stays authoritative.
func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	sessions := c.state.Sessions()
	if len(sessions) == 0 {
		return
	}
	for _, sess := range sessions {
		for i := range sess.Messages {
			sess.Messages[i].IsStreaming = false
			sess.Messages[i].StreamingContent = ""
		}
	}
	if err := c.store.Persist(sessions); err != nil {
		c.log.Error().Err(err).Msg("failed to persist chat sessions")
	}
}
