package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shellkode/kodechat/pkg/chat"
)

// Archive mirrors the backend's stored sessions locally so history
// stays browsable offline. It is a read cache, not a source of truth:
// every sync replaces the user's rows wholesale.
type Archive struct {
	db *sql.DB
}

// ArchivedSession is one backend session as held in the archive.
type ArchivedSession struct {
	ID           string
	UserID       string
	Title        string
	Mode         chat.Mode
	UpdatedAt    time.Time
	MessageCount int
	Messages     []chat.Message
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	title         TEXT NOT NULL,
	mode          TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	message_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	type       TEXT NOT NULL,
	content    TEXT NOT NULL,
	mode       TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	extras     TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, position);
`

// messageExtras holds the optional enrichments in one JSON column
// rather than widening the messages table per field.
type messageExtras struct {
	Sources []chat.Source   `json:"sources,omitempty"`
	Code    *chat.CodeBlock `json:"code,omitempty"`
}

// OpenArchive opens (creating if needed) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure archive database: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error { return a.db.Close() }

// ReplaceUserSessions swaps the user's archived rows for the given set
// in one transaction. A failed sync leaves the previous archive intact.
func (a *Archive) ReplaceUserSessions(ctx context.Context, userID string, sessions []ArchivedSession) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear archived sessions: %w", err)
	}

	for _, sess := range sessions {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO sessions (id, user_id, title, mode, updated_at, message_count) VALUES (?, ?, ?, ?, ?, ?)",
			sess.ID, userID, sess.Title, string(sess.Mode), sess.UpdatedAt.Format(time.RFC3339), sess.MessageCount)
		if err != nil {
			return fmt.Errorf("failed to archive session %s: %w", sess.ID, err)
		}
		for i, msg := range sess.Messages {
			extras, err := encodeExtras(msg)
			if err != nil {
				return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO messages (id, session_id, position, type, content, mode, timestamp, extras) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				msg.ID, sess.ID, i, string(msg.Type), msg.Content, string(msg.Mode), msg.Timestamp.Format(time.RFC3339), extras)
			if err != nil {
				return fmt.Errorf("failed to archive message %s: %w", msg.ID, err)
			}
		}
	}
	return tx.Commit()
}

// UserSessions lists the user's archived sessions, most recent first.
// Messages are not loaded; use SessionMessages for the transcript.
func (a *Archive) UserSessions(ctx context.Context, userID string) ([]ArchivedSession, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT id, title, mode, updated_at, message_count FROM sessions WHERE user_id = ? ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ArchivedSession
	for rows.Next() {
		sess := ArchivedSession{UserID: userID}
		var mode, updatedAt string
		if err := rows.Scan(&sess.ID, &sess.Title, &mode, &updatedAt, &sess.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan archived session: %w", err)
		}
		sess.Mode = chat.Mode(mode)
		sess.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SessionMessages returns one archived transcript in stored order.
func (a *Archive) SessionMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT id, type, content, mode, timestamp, extras FROM messages WHERE session_id = ? ORDER BY position",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query archived messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		var msgType, mode, timestamp string
		var extras sql.NullString
		if err := rows.Scan(&msg.ID, &msgType, &msg.Content, &mode, &timestamp, &extras); err != nil {
			return nil, fmt.Errorf("failed to scan archived message: %w", err)
		}
		msg.Type = chat.MessageType(msgType)
		msg.Mode = chat.Mode(mode)
		msg.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		if extras.Valid && extras.String != "" {
			var ex messageExtras
			if err := json.Unmarshal([]byte(extras.String), &ex); err == nil {
				msg.Sources = ex.Sources
				msg.Code = ex.Code
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ClearUser drops everything archived for the user. Called on logout.
func (a *Archive) ClearUser(ctx context.Context, userID string) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear archive: %w", err)
	}
	return nil
}

func encodeExtras(msg chat.Message) (sql.NullString, error) {
	if len(msg.Sources) == 0 && msg.Code == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(messageExtras{Sources: msg.Sources, Code: msg.Code})
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
