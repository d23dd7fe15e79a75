// Package store persists chat sessions: a JSON document on disk as the
// primary store, and a sqlite archive for synced backend history.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/chat"
)

const sessionsFileName = "sessions.json"

// FileStore keeps the whole session collection in one JSON document,
// rewritten wholesale on every persist.
type FileStore struct {
	path string
	log  zerolog.Logger
}

// NewFileStore creates a store rooted at dir. The directory is created
// lazily on first persist.
func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	return &FileStore{
		path: filepath.Join(dir, sessionsFileName),
		log:  log.With().Str("component", "store").Logger(),
	}
}

// Load reads the persisted collection. A missing file is a fresh
// install, not an error. Individual entries that fail to decode are
// dropped with a warning; one corrupt session must not take the rest of
// the history with it.
func (s *FileStore) Load() ([]*chat.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sessions file: %w", err)
	}

	sessions := make([]*chat.Session, 0, len(raw))
	for i, entry := range raw {
		var sess chat.Session
		if err := json.Unmarshal(entry, &sess); err != nil {
			s.log.Warn().Err(err).Int("index", i).Msg("dropping unreadable session entry")
			continue
		}
		if sess.ID == "" {
			s.log.Warn().Int("index", i).Msg("dropping session entry without id")
			continue
		}
		// A process that died mid-stream leaves streaming flags behind.
		for j := range sess.Messages {
			sess.Messages[j].IsStreaming = false
			sess.Messages[j].StreamingContent = ""
		}
		sessions = append(sessions, &sess)
	}
	return sessions, nil
}

// Persist overwrites the stored collection with the given sessions.
func (s *FileStore) Persist(sessions []*chat.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}
	return nil
}
