package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/api"
	"github.com/shellkode/kodechat/pkg/chat"
)

type fakeBackend struct {
	summaries   []api.SessionSummary
	listErr     error
	messages    map[string][]api.SessionMessage
	messagesErr error
}

func (f *fakeBackend) ListSessions(ctx context.Context) ([]api.SessionSummary, error) {
	return f.summaries, f.listErr
}

func (f *fakeBackend) SessionMessages(ctx context.Context, sessionID string) ([]api.SessionMessage, error) {
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return f.messages[sessionID], nil
}

func newSyncTestArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive() unexpected error: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestSyncPullsBackendHistory(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	backend := &fakeBackend{
		summaries: []api.SessionSummary{
			{ID: "s1", Title: "first", Mode: chat.ModeResearch, UpdatedAt: now, MessageCount: 1},
		},
		messages: map[string][]api.SessionMessage{
			"s1": {{ID: "m1", Type: "user", Content: "q", Mode: chat.ModeResearch, Timestamp: now}},
		},
	}
	archive := newSyncTestArchive(t)
	syncer := NewSyncer(backend, archive, zerolog.Nop())

	count, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Sync() unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("Sync() = %d, want 1", count)
	}

	messages, err := archive.SessionMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SessionMessages() unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "q" {
		t.Errorf("transcript not archived: %+v", messages)
	}
}

func TestSyncSurvivesTranscriptFailure(t *testing.T) {
	now := time.Now().UTC()
	backend := &fakeBackend{
		summaries: []api.SessionSummary{
			{ID: "s1", Title: "first", Mode: chat.ModeResearch, UpdatedAt: now, MessageCount: 3},
		},
		messagesErr: errors.New("transcript endpoint down"),
	}
	archive := newSyncTestArchive(t)
	syncer := NewSyncer(backend, archive, zerolog.Nop())

	count, err := syncer.Sync(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Sync() should tolerate transcript failures: %v", err)
	}
	if count != 1 {
		t.Errorf("Sync() = %d, want 1", count)
	}

	sessions, err := archive.UserSessions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UserSessions() unexpected error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MessageCount != 3 {
		t.Errorf("summary not archived despite transcript failure: %+v", sessions)
	}
}

func TestSessionsFallsBackToArchiveOffline(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	archive := newSyncTestArchive(t)
	seed := []ArchivedSession{{ID: "s1", UserID: "u1", Title: "cached", Mode: chat.ModeResearch, UpdatedAt: now}}
	if err := archive.ReplaceUserSessions(context.Background(), "u1", seed); err != nil {
		t.Fatalf("seed archive: %v", err)
	}

	backend := &fakeBackend{listErr: errors.New("no route to host")}
	syncer := NewSyncer(backend, archive, zerolog.Nop())

	sessions, offline, err := syncer.Sessions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Sessions() unexpected error: %v", err)
	}
	if !offline {
		t.Error("expected offline fallback flag")
	}
	if len(sessions) != 1 || sessions[0].Title != "cached" {
		t.Errorf("archive fallback missing: %+v", sessions)
	}
}

func TestSessionsPrefersBackendWhenReachable(t *testing.T) {
	now := time.Now().UTC()
	backend := &fakeBackend{
		summaries: []api.SessionSummary{
			{ID: "s1", Title: "live", Mode: chat.ModeCode, UpdatedAt: now, MessageCount: 5},
		},
	}
	syncer := NewSyncer(backend, newSyncTestArchive(t), zerolog.Nop())

	sessions, offline, err := syncer.Sessions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Sessions() unexpected error: %v", err)
	}
	if offline {
		t.Error("offline flag set with reachable backend")
	}
	if len(sessions) != 1 || sessions[0].Title != "live" {
		t.Errorf("backend list not returned: %+v", sessions)
	}
}
