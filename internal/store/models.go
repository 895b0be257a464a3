package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

// Entry is a single journal submission. Sentiment is nil when the user did not rate the entry.
type Entry struct {
	ID        int64     `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"content"`
	Sentiment *int      `json:"sentiment" yaml:"sentiment"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ChatSession is a persisted conversation. Messages holds the encoded message list as stored.
type ChatSession struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Messages         json.RawMessage `json:"messages"`
	FirstUserMessage string          `json:"first_user_message"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// SessionPatch replaces the message list and preview of an existing session.
type SessionPatch struct {
	Messages         json.RawMessage
	FirstUserMessage string
}

type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent signals that some entry of a user changed. EntryID is zero for bulk deletes.
type ChangeEvent struct {
	UserID  string   `json:"user_id"`
	Op      ChangeOp `json:"op"`
	EntryID int64    `json:"entry_id"`
}
