// Package queue persists queued replies and drains them through the reply
// router with bounded retries.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration

	"github.com/courierhq/courier/pkg/payload"
)

const busyTimeoutMillis = 5000

// Item statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Item is one queued reply.
type Item struct {
	ID         int64
	Channel    string
	To         string
	AccountID  string
	SessionKey string
	ThreadID   int64
	Payload    payload.Reply
	Attempts   int
	Status     string
	LastError  string
	CreatedAt  time.Time
}

// Store is the SQLite-backed followup queue.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the queue database at path.
//
// The database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("queue: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("queue: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.TODO()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("queue: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("queue: set busy_timeout: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS followups (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			channel     TEXT NOT NULL,
			target      TEXT NOT NULL,
			account_id  TEXT NOT NULL DEFAULT '',
			session_key TEXT NOT NULL DEFAULT '',
			thread_id   INTEGER NOT NULL DEFAULT 0,
			payload     TEXT NOT NULL,
			attempts    INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'pending',
			last_error  TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_followups_status ON followups(status, id);
	`)
	if err != nil {
		return fmt.Errorf("queue: migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Enqueue inserts a pending item and returns its ID.
func (s *Store) Enqueue(ctx context.Context, item Item) (int64, error) {
	body, err := json.Marshal(item.Payload)
	if err != nil {
		return 0, fmt.Errorf("queue: marshal payload: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO followups (channel, target, account_id, session_key, thread_id, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Channel, item.To, item.AccountID, item.SessionKey, item.ThreadID,
		string(body), StatusPending, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("queue: enqueue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("queue: enqueue id: %w", err)
	}
	return id, nil
}

// NextPending returns the oldest pending item, or (nil, nil) when the queue
// is drained.
func (s *Store) NextPending(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, channel, target, account_id, session_key, thread_id, payload, attempts, status, last_error, created_at
		FROM followups
		WHERE status = ?
		ORDER BY id
		LIMIT 1`,
		StatusPending,
	)

	var (
		item      Item
		body      string
		createdAt string
	)
	err := row.Scan(&item.ID, &item.Channel, &item.To, &item.AccountID, &item.SessionKey,
		&item.ThreadID, &body, &item.Attempts, &item.Status, &item.LastError, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: next pending: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &item.Payload); err != nil {
		return nil, fmt.Errorf("queue: decode payload for item %d: %w", item.ID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		item.CreatedAt = t
	}
	return &item, nil
}

// MarkSent records a successful delivery.
func (s *Store) MarkSent(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusSent, "")
}

// MarkRetry records a failed attempt and keeps the item pending.
func (s *Store) MarkRetry(ctx context.Context, id int64, lastError string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		UPDATE followups SET attempts = attempts + 1, last_error = ?, updated_at = ? WHERE id = ?`,
		lastError, now, id,
	)
	if err != nil {
		return fmt.Errorf("queue: mark retry: %w", err)
	}
	return nil
}

// MarkFailed records a permanent failure.
func (s *Store) MarkFailed(ctx context.Context, id int64, lastError string) error {
	return s.setStatus(ctx, id, StatusFailed, lastError)
}

func (s *Store) setStatus(ctx context.Context, id int64, status, lastError string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		UPDATE followups SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		status, lastError, now, id,
	)
	if err != nil {
		return fmt.Errorf("queue: set status %s: %w", status, err)
	}
	return nil
}

// PendingCount returns the number of items waiting for delivery.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM followups WHERE status = ?`, StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("queue: pending count: %w", err)
	}
	return n, nil
}
