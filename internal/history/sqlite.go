package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// SQLiteStore keeps history in a local SQLite file.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// NewSQLite opens (or creates) the database at dbPath. Use ":memory:" for tests.
func NewSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serialises writes.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{conn: conn, path: dbPath}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT CHECK(role IN ('user', 'bot')) NOT NULL,
		message TEXT NOT NULL,
		lang TEXT,
		ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history(session_id, id);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create chat_history table: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Save(ctx context.Context, msg Message) error {
	at := msg.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO chat_history (session_id, role, message, lang, ts) VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Text, msg.Lang, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT session_id, role, message, COALESCE(lang, ''), ts FROM (
			SELECT id, session_id, role, message, lang, ts FROM chat_history
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var (
			m  Message
			ts int64
		)
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Text, &m.Lang, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		m.At = time.UnixMilli(ts)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return msgs, nil
}

func (s *SQLiteStore) Prune(ctx context.Context, sessionID string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM chat_history WHERE session_id = ? AND id NOT IN (
			SELECT id FROM chat_history WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`,
		sessionID, sessionID, keep)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM chat_history WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// DeleteBefore removes turns older than cutoff across all sessions and
// returns how many were removed.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM chat_history WHERE ts < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired history: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
