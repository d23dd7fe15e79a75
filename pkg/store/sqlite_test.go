package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shellkode/kodechat/pkg/chat"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive() unexpected error: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func sampleArchived(userID string, updated time.Time) []ArchivedSession {
	return []ArchivedSession{
		{
			ID: "s1", UserID: userID, Title: "first", Mode: chat.ModeResearch,
			UpdatedAt: updated, MessageCount: 2,
			Messages: []chat.Message{
				{ID: "m1", Type: chat.MessageUser, Content: "q", Mode: chat.ModeResearch, Timestamp: updated},
				{
					ID: "m2", Type: chat.MessageAssistant, Content: "a", Mode: chat.ModeResearch, Timestamp: updated,
					Sources: []chat.Source{{Title: "doc", URL: "https://example.com", Type: "web"}},
				},
			},
		},
		{
			ID: "s2", UserID: userID, Title: "second", Mode: chat.ModeCode,
			UpdatedAt: updated.Add(-time.Hour), MessageCount: 0,
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	updated := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	if err := archive.ReplaceUserSessions(ctx, "u1", sampleArchived("u1", updated)); err != nil {
		t.Fatalf("ReplaceUserSessions() unexpected error: %v", err)
	}

	sessions, err := archive.UserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("UserSessions() unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	// Ordered by recency.
	if sessions[0].ID != "s1" || sessions[1].ID != "s2" {
		t.Errorf("ordering = %s, %s; want s1, s2", sessions[0].ID, sessions[1].ID)
	}
	if sessions[0].MessageCount != 2 || sessions[0].Mode != chat.ModeResearch {
		t.Errorf("session metadata lost: %+v", sessions[0])
	}

	messages, err := archive.SessionMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionMessages() unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Type != chat.MessageUser || messages[1].Type != chat.MessageAssistant {
		t.Error("message ordering or types lost")
	}
	if len(messages[1].Sources) != 1 || messages[1].Sources[0].URL != "https://example.com" {
		t.Errorf("source enrichment lost: %+v", messages[1].Sources)
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	updated := time.Now().UTC().Truncate(time.Second)

	if err := archive.ReplaceUserSessions(ctx, "u1", sampleArchived("u1", updated)); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	replacement := []ArchivedSession{{ID: "s9", UserID: "u1", Title: "only", Mode: chat.ModeStandard, UpdatedAt: updated}}
	if err := archive.ReplaceUserSessions(ctx, "u1", replacement); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	sessions, err := archive.UserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("UserSessions() unexpected error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s9" {
		t.Errorf("replace merged instead of swapping: %+v", sessions)
	}

	// Messages of replaced sessions must be gone too.
	messages, err := archive.SessionMessages(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionMessages() unexpected error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("orphaned messages survived replace: %d", len(messages))
	}
}

func TestReplaceIsolatedPerUser(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	updated := time.Now().UTC().Truncate(time.Second)

	if err := archive.ReplaceUserSessions(ctx, "u1", sampleArchived("u1", updated)); err != nil {
		t.Fatalf("seed u1: %v", err)
	}
	other := []ArchivedSession{{ID: "x1", UserID: "u2", Title: "other", Mode: chat.ModeResearch, UpdatedAt: updated}}
	if err := archive.ReplaceUserSessions(ctx, "u2", other); err != nil {
		t.Fatalf("seed u2: %v", err)
	}

	sessions, err := archive.UserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("UserSessions() unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("u2 sync disturbed u1 archive: %d sessions", len(sessions))
	}
}

func TestClearUser(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	if err := archive.ReplaceUserSessions(ctx, "u1", sampleArchived("u1", time.Now().UTC())); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := archive.ClearUser(ctx, "u1"); err != nil {
		t.Fatalf("ClearUser() unexpected error: %v", err)
	}

	sessions, err := archive.UserSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("UserSessions() unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("archive not cleared: %d sessions", len(sessions))
	}
}
