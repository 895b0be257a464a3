package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// EntryStore reads and writes journal entries. Every call is scoped to one user.
type EntryStore interface {
	// ListEntries returns entries newest first. limit <= 0 returns all of them.
	ListEntries(ctx context.Context, userID string, limit int) ([]Entry, error)
	InsertEntry(ctx context.Context, entry *Entry) error
	DeleteEntry(ctx context.Context, userID string, id int64) error
	DeleteAllEntries(ctx context.Context, userID string) (int64, error)
}

type SessionStore interface {
	// ListSessions returns sessions most recently updated first.
	ListSessions(ctx context.Context, userID string) ([]ChatSession, error)
	GetSession(ctx context.Context, userID, id string) (*ChatSession, error)
	CreateSession(ctx context.Context, session *ChatSession) error
	UpdateSession(ctx context.Context, userID, id string, patch SessionPatch) error
	DeleteSession(ctx context.Context, userID, id string) error
}

// ChangeSource delivers entry change events. fn must not block.
type ChangeSource interface {
	Subscribe(userID string, fn func(ChangeEvent)) (cancel func())
}

type Store interface {
	UserStore
	EntryStore
	SessionStore
	Changes() ChangeSource
	Close() error
}
