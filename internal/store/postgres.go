package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entriesChannel = "entries_changed"

// PostgresStore keeps journal data in PostgreSQL. Entry changes reach subscribers through
// LISTEN/NOTIFY, so writes made by other processes are observed as well.
type PostgresStore struct {
	pool    *pgxpool.Pool
	changes *Broadcaster
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, changes: NewBroadcaster()}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Changes() ChangeSource {
	return s.changes
}

// Listen forwards entry notifications to subscribers until ctx is cancelled.
func (s *PostgresStore) Listen(ctx context.Context) error {
	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("entry change listener interrupted, reconnecting", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (s *PostgresStore) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+entriesChannel); err != nil {
		return fmt.Errorf("listen %s: %w", entriesChannel, err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var ev ChangeEvent
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			slog.Warn("ignoring malformed entry notification", "payload", n.Payload, "error", err)
			continue
		}
		s.changes.Publish(ev)
	}
}

// User methods
func (s *PostgresStore) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	user := User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		"INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at",
		user.ID, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "SELECT id::text, email, password_hash, created_at FROM users WHERE email = $1", email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.getUser(ctx, "SELECT id::text, email, password_hash, created_at FROM users WHERE id = $1", id)
}

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Entry methods
func (s *PostgresStore) ListEntries(ctx context.Context, userID string, limit int) ([]Entry, error) {
	query := "SELECT id, user_id::text, title, content, sentiment, created_at FROM entries WHERE user_id = $1 ORDER BY created_at DESC, id DESC"
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var sentiment *int16
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Title, &entry.Content, &sentiment, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if sentiment != nil {
			v := int(*sentiment)
			entry.Sentiment = &v
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) InsertEntry(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var sentiment *int16
	if entry.Sentiment != nil {
		v := int16(*entry.Sentiment)
		sentiment = &v
	}

	err := s.pool.QueryRow(ctx,
		"INSERT INTO entries (user_id, title, content, sentiment, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		entry.UserID, entry.Title, entry.Content, sentiment, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteEntry(ctx context.Context, userID string, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM entries WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteAllEntries(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM entries WHERE user_id = $1", userID)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Chat session methods
func (s *PostgresStore) ListSessions(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id::text, user_id::text, messages, first_user_message, created_at, updated_at FROM chat_history WHERE user_id = $1 ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ChatSession{}
	for rows.Next() {
		var session ChatSession
		var messages []byte
		if err := rows.Scan(&session.ID, &session.UserID, &messages, &session.FirstUserMessage, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		session.Messages = messages
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}
	return sessions, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, userID, id string) (*ChatSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}

	var session ChatSession
	var messages []byte
	err := s.pool.QueryRow(ctx,
		"SELECT id::text, user_id::text, messages, first_user_message, created_at, updated_at FROM chat_history WHERE id = $1 AND user_id = $2",
		id, userID,
	).Scan(&session.ID, &session.UserID, &messages, &session.FirstUserMessage, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get chat session: %w", err)
	}
	session.Messages = messages
	return &session, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx,
		"INSERT INTO chat_history (id, user_id, messages, first_user_message) VALUES ($1, $2, $3::jsonb, $4) RETURNING created_at, updated_at",
		session.ID, session.UserID, string(session.Messages), session.FirstUserMessage,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert chat session: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSession(ctx context.Context, userID, id string, patch SessionPatch) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE chat_history SET messages = $1::jsonb, first_user_message = $2, updated_at = now() WHERE id = $3 AND user_id = $4",
		string(patch.Messages), patch.FirstUserMessage, id, userID)
	if err != nil {
		return fmt.Errorf("update chat session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM chat_history WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat session %s: %w", id, ErrNotFound)
	}
	return nil
}
