package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db      *sql.DB
	changes *Broadcaster
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases intact and avoids "database is locked" on writes.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, changes: NewBroadcaster()}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Changes() ChangeSource {
	return s.changes
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        content TEXT NOT NULL,
        sentiment INTEGER CHECK (sentiment BETWEEN 1 AND 5),
        created_at DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS entries_user_created_idx ON entries (user_id, created_at DESC);

    CREATE TABLE IF NOT EXISTS chat_history (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        messages TEXT NOT NULL, -- JSON array of messages
        first_user_message TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    CREATE INDEX IF NOT EXISTS chat_history_user_updated_idx ON chat_history (user_id, updated_at DESC);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

// Entry methods
func (s *SQLiteStore) ListEntries(ctx context.Context, userID string, limit int) ([]Entry, error) {
	query := "SELECT id, user_id, title, content, sentiment, created_at FROM entries WHERE user_id = ? ORDER BY created_at DESC, id DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var sentiment sql.NullInt64
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Content, &sentiment, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if sentiment.Valid {
			v := int(sentiment.Int64)
			entry.Sentiment = &v
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) InsertEntry(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	var sentiment sql.NullInt64
	if entry.Sentiment != nil {
		sentiment = sql.NullInt64{Int64: int64(*entry.Sentiment), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO entries (user_id, title, content, sentiment, created_at) VALUES (?, ?, ?, ?, ?)",
		entry.UserID, entry.Title, entry.Content, sentiment, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute entry insert: %w", err)
	}
	entry.ID, _ = res.LastInsertId()

	s.changes.Publish(ChangeEvent{UserID: entry.UserID, Op: OpInsert, EntryID: entry.ID})
	return nil
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to execute entry delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}

	s.changes.Publish(ChangeEvent{UserID: userID, Op: OpDelete, EntryID: id})
	return nil
}

func (s *SQLiteStore) DeleteAllEntries(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		s.changes.Publish(ChangeEvent{UserID: userID, Op: OpDelete})
	}
	return affected, nil
}

// Chat session methods
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, user_id, messages, first_user_message, created_at, updated_at FROM chat_history WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ChatSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat sessions: %w", err)
	}
	return sessions, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, userID, id string) (*ChatSession, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, user_id, messages, first_user_message, created_at, updated_at FROM chat_history WHERE id = ? AND user_id = ?", id, userID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	return session, err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, session *ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, "INSERT INTO chat_history (id, user_id, messages, first_user_message, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		session.ID, session.UserID, string(session.Messages), session.FirstUserMessage, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute chat session insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, userID, id string, patch SessionPatch) error {
	res, err := s.db.ExecContext(ctx, "UPDATE chat_history SET messages = ?, first_user_message = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		string(patch.Messages), patch.FirstUserMessage, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to execute chat session update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_history WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to execute chat session delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*ChatSession, error) {
	var session ChatSession
	var messages string
	if err := row.Scan(&session.ID, &session.UserID, &messages, &session.FirstUserMessage, &session.CreatedAt, &session.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan chat session row: %w", err)
	}
	session.Messages = []byte(strings.TrimSpace(messages))
	return &session, nil
}
