package chat

import (
	"sync"
	"time"
)

// State is the in-memory authoritative store of sessions, the current
// selection, and the single active-stream cursor. It is constructed
// explicitly and passed to whoever needs it; there is no package-level
// instance. Every mutation is atomic under the internal lock, and
// mutations targeting an id that no longer exists are silent no-ops so
// that a late stream event and a user-triggered delete can interleave in
// either order without corrupting anything.
type State struct {
	mu             sync.RWMutex
	sessions       []*Session // newest first
	currentID      string
	activeStreamID string
	now            func() time.Time
}

// NewState returns an empty State: no sessions, no selection, no stream.
func NewState() *State {
	return &State{now: time.Now}
}

// SetClock overrides the time source. Used by tests.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// LoadSessions replaces the entire collection. Called once at startup.
func (s *State) LoadSessions(sessions []*Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make([]*Session, len(sessions))
	for i, sess := range sessions {
		s.sessions[i] = sess.Clone()
	}
}

// CreateSession prepends the session to the list (newest first). It does
// not change the current selection; selecting is a separate call.
func (s *State) CreateSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]*Session{sess.Clone()}, s.sessions...)
}

// SessionPatch carries the optional fields of UpdateSessionMeta. Nil
// fields are left untouched.
type SessionPatch struct {
	Mode      *Mode
	TimeLabel *string
}

// UpdateSessionMeta merges the patch into the session and refreshes
// LastActivity. No-op if the session is absent.
func (s *State) UpdateSessionMeta(sessionID string, patch SessionPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(sessionID)
	if sess == nil {
		return
	}
	if patch.Mode != nil {
		sess.Mode = *patch.Mode
	}
	if patch.TimeLabel != nil {
		sess.TimeLabel = *patch.TimeLabel
	}
	sess.LastActivity = s.now()
}

// DeleteSession removes the session. If it was selected, the selection
// becomes empty; the UI decides where to navigate next.
func (s *State) DeleteSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if sess.ID != sessionID {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept
	if s.currentID == sessionID {
		s.currentID = ""
	}
}

// SelectSession sets the current selection. The id is not validated;
// selecting an unknown id simply yields "no current session" downstream.
func (s *State) SelectSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = sessionID
}

// AppendMessage appends to the session's message sequence and refreshes
// LastActivity. No-op if the session is absent.
func (s *State) AppendMessage(sessionID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(sessionID)
	if sess == nil {
		return
	}
	sess.Messages = append(sess.Messages, msg.clone())
	sess.LastActivity = s.now()
}

// MessagePatch carries the optional fields of PatchMessage. Nil fields
// are left untouched.
type MessagePatch struct {
	Content          *string
	StreamingContent *string
	IsStreaming      *bool
	Timestamp        *time.Time
	Sources          []Source
	Code             *CodeBlock
}

// PatchMessage merges the patch into the matching message and refreshes
// the session's LastActivity. No-op if session or message is absent.
func (s *State) PatchMessage(sessionID, messageID string, patch MessagePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(sessionID)
	if sess == nil {
		return
	}
	for i := range sess.Messages {
		if sess.Messages[i].ID != messageID {
			continue
		}
		msg := &sess.Messages[i]
		if patch.Content != nil {
			msg.Content = *patch.Content
		}
		if patch.StreamingContent != nil {
			msg.StreamingContent = *patch.StreamingContent
		}
		if patch.IsStreaming != nil {
			msg.IsStreaming = *patch.IsStreaming
		}
		if patch.Timestamp != nil {
			msg.Timestamp = *patch.Timestamp
		}
		if patch.Sources != nil {
			msg.Sources = patch.Sources
		}
		if patch.Code != nil {
			msg.Code = patch.Code
		}
		sess.LastActivity = s.now()
		return
	}
}

// RenameSession overwrites the title. Title derivation has its own policy
// in the controller, so this stays separate from UpdateSessionMeta.
func (s *State) RenameSession(sessionID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.find(sessionID); sess != nil {
		sess.Title = title
	}
}

// SetActiveStream records which message, if any, is currently receiving
// stream content. At most one stream is active system-wide; pass "" to
// clear.
func (s *State) SetActiveStream(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeStreamID = messageID
}

// ActiveStreamID returns the id of the message currently receiving
// content, or "" when no stream is active.
func (s *State) ActiveStreamID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeStreamID
}

// Sessions returns a deep-copied snapshot of all sessions, newest first.
func (s *State) Sessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Session returns a deep-copied snapshot of one session.
func (s *State) Session(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess := s.find(sessionID); sess != nil {
		return sess.Clone(), true
	}
	return nil, false
}

// CurrentSessionID returns the selected session id, or "".
func (s *State) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentID
}

// CurrentSession returns a snapshot of the selected session, or nil when
// nothing is selected or the selected id is unknown.
func (s *State) CurrentSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == "" {
		return nil
	}
	if sess := s.find(s.currentID); sess != nil {
		return sess.Clone()
	}
	return nil
}

// find returns the live session pointer. Callers must hold the lock.
func (s *State) find(sessionID string) *Session {
	for _, sess := range s.sessions {
		if sess.ID == sessionID {
			return sess
		}
	}
	return nil
}
