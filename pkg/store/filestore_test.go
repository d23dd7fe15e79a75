package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/chat"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), zerolog.Nop())
}

func TestLoadMissingFile(t *testing.T) {
	store := testStore(t)
	sessions, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on fresh install: %v", err)
	}
	if sessions != nil {
		t.Errorf("expected nil sessions, got %d", len(sessions))
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	store := testStore(t)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	in := []*chat.Session{
		{
			ID:        "s1",
			Title:     "How do goroutines work",
			TimeLabel: "2 hours ago",
			Mode:      chat.ModeResearch,
			Messages: []chat.Message{
				{ID: "m1", Type: chat.MessageUser, Content: "How do goroutines work", Mode: chat.ModeResearch, Timestamp: now},
				{
					ID: "m2", Type: chat.MessageAssistant, Content: "They are lightweight threads.",
					Mode: chat.ModeResearch, Timestamp: now,
					Sources: []chat.Source{{Title: "Go docs", URL: "https://go.dev", Type: "web"}},
					Code:    &chat.CodeBlock{Language: "go", Content: "go f()"},
				},
			},
			LastActivity: now,
		},
		{
			ID: "s2", Title: chat.DefaultTitle, TimeLabel: "Just now",
			Mode: chat.ModeCode, Messages: []chat.Message{}, LastActivity: now,
		},
	}

	if err := store.Persist(in); err != nil {
		t.Fatalf("Persist() unexpected error: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(out))
	}
	if out[0].ID != "s1" || out[1].ID != "s2" {
		t.Errorf("session order not preserved: %s, %s", out[0].ID, out[1].ID)
	}
	got := out[0].Messages[1]
	if got.Content != "They are lightweight threads." {
		t.Errorf("message content lost: %q", got.Content)
	}
	if len(got.Sources) != 1 || got.Sources[0].URL != "https://go.dev" {
		t.Errorf("sources lost: %+v", got.Sources)
	}
	if got.Code == nil || got.Code.Language != "go" {
		t.Errorf("code enrichment lost: %+v", got.Code)
	}
	if !got.Timestamp.Equal(now) {
		t.Errorf("timestamp drifted: %v", got.Timestamp)
	}
}

func TestLoadResetsStreamingFlags(t *testing.T) {
	store := testStore(t)
	in := []*chat.Session{{
		ID: "s1", Title: "t", Mode: chat.ModeResearch,
		Messages: []chat.Message{{
			ID: "m1", Type: chat.MessageAssistant,
			Content: "partial", IsStreaming: true, StreamingContent: "partial",
		}},
	}}

	// Persist keeps whatever flags are on the structs; a crash
	// mid-stream leaves them set, so Load must clear them.
	if err := store.Persist(in); err != nil {
		t.Fatalf("Persist() unexpected error: %v", err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	msg := out[0].Messages[0]
	if msg.IsStreaming || msg.StreamingContent != "" {
		t.Errorf("streaming flags survived reload: %+v", msg)
	}
	if msg.Content != "partial" {
		t.Errorf("content lost on reload: %q", msg.Content)
	}
}

func TestLoadDropsUnreadableEntries(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, zerolog.Nop())

	doc := `[
		{"id": "good", "title": "kept", "mode": "research", "messages": []},
		{"id": 42, "title": "wrong id type"},
		{"title": "no id", "mode": "research"}
	]`
	if err := os.WriteFile(filepath.Join(dir, sessionsFileName), []byte(doc), 0644); err != nil {
		t.Fatalf("failed to seed sessions file: %v", err)
	}

	sessions, err := store.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "good" {
		t.Errorf("expected only the valid entry, got %d", len(sessions))
	}
}

func TestLoadCorruptDocumentFails(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, zerolog.Nop())
	if err := os.WriteFile(filepath.Join(dir, sessionsFileName), []byte("{not an array"), 0644); err != nil {
		t.Fatalf("failed to seed sessions file: %v", err)
	}
	if _, err := store.Load(); err == nil {
		t.Error("expected error for unparseable document")
	}
}
