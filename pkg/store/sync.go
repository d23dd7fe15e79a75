package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/api"
	"github.com/shellkode/kodechat/pkg/chat"
)

// Backend is the slice of the API client the syncer needs.
type Backend interface {
	ListSessions(ctx context.Context) ([]api.SessionSummary, error)
	SessionMessages(ctx context.Context, sessionID string) ([]api.SessionMessage, error)
}

// Syncer pulls the user's backend history into the local archive so it
// stays readable when the backend is unreachable.
type Syncer struct {
	backend Backend
	archive *Archive
	log     zerolog.Logger
}

// NewSyncer wires a syncer over the given backend and archive.
func NewSyncer(backend Backend, archive *Archive, log zerolog.Logger) *Syncer {
	return &Syncer{
		backend: backend,
		archive: archive,
		log:     log.With().Str("component", "sync").Logger(),
	}
}

// Sync fetches the user's sessions and transcripts from the backend and
// replaces the archive with them. A transcript that fails to fetch is
// archived without messages rather than failing the whole sync.
func (s *Syncer) Sync(ctx context.Context, userID string) (int, error) {
	summaries, err := s.backend.ListSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	archived := make([]ArchivedSession, 0, len(summaries))
	for _, summary := range summaries {
		sess := ArchivedSession{
			ID:           summary.ID,
			UserID:       userID,
			Title:        summary.Title,
			Mode:         summary.Mode,
			UpdatedAt:    summary.UpdatedAt,
			MessageCount: summary.MessageCount,
		}
		messages, err := s.backend.SessionMessages(ctx, summary.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", summary.ID).Msg("skipping transcript fetch")
		} else {
			sess.Messages = convertMessages(messages)
		}
		archived = append(archived, sess)
	}

	if err := s.archive.ReplaceUserSessions(ctx, userID, archived); err != nil {
		return 0, fmt.Errorf("failed to update archive: %w", err)
	}
	return len(archived), nil
}

// Sessions returns the backend session list, falling back to the local
// archive when the backend is unreachable. The bool reports whether the
// result came from the archive.
func (s *Syncer) Sessions(ctx context.Context, userID string) ([]ArchivedSession, bool, error) {
	summaries, err := s.backend.ListSessions(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("backend unreachable, reading archive")
		archived, archiveErr := s.archive.UserSessions(ctx, userID)
		if archiveErr != nil {
			return nil, true, archiveErr
		}
		return archived, true, nil
	}

	sessions := make([]ArchivedSession, 0, len(summaries))
	for _, summary := range summaries {
		sessions = append(sessions, ArchivedSession{
			ID:           summary.ID,
			UserID:       userID,
			Title:        summary.Title,
			Mode:         summary.Mode,
			UpdatedAt:    summary.UpdatedAt,
			MessageCount: summary.MessageCount,
		})
	}
	return sessions, false, nil
}

func convertMessages(in []api.SessionMessage) []chat.Message {
	out := make([]chat.Message, 0, len(in))
	for _, m := range in {
		msg := chat.Message{
			ID:        m.ID,
			Type:      chat.MessageType(m.Type),
			Content:   m.Content,
			Mode:      m.Mode,
			Timestamp: m.Timestamp,
			Sources:   m.Sources,
			Code:      m.Code,
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		out = append(out, msg)
	}
	return out
}
