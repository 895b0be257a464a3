package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/store"
)

// ChatService hands out one Conversation per user and shares a single
// debouncer between them.
type ChatService struct {
	sessions  store.SessionStore
	entries   store.EntryStore
	completer CompletionClient
	debouncer *Debouncer
	opts      ChatOptions

	now func() time.Time

	mu            sync.Mutex
	conversations map[string]*activeConversation
}

type activeConversation struct {
	conv     *Conversation
	lastUsed time.Time
}

func NewChatService(sessions store.SessionStore, entries store.EntryStore, completer CompletionClient, opts ChatOptions) *ChatService {
	opts = opts.withDefaults()
	return &ChatService{
		sessions:      sessions,
		entries:       entries,
		completer:     completer,
		debouncer:     NewDebouncer(opts.PersistDebounce),
		opts:          opts,
		now:           time.Now,
		conversations: make(map[string]*activeConversation),
	}
}

// Conversation returns the user's active conversation, creating it on first use.
func (s *ChatService) Conversation(u auth.UserContext) (*Conversation, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if active, ok := s.conversations[u.UserID]; ok {
		active.lastUsed = s.now()
		return active.conv, nil
	}
	c, err := NewConversation(u, s.sessions, s.entries, s.completer, s.debouncer, s.opts)
	if err != nil {
		return nil, err
	}
	s.conversations[u.UserID] = &activeConversation{conv: c, lastUsed: s.now()}
	return c, nil
}

// EvictIdle writes and forgets conversations that have not been used for
// maxIdle. Conversations with a send in flight are kept. A user coming back
// after eviction starts a new conversation and can reload the stored one.
func (s *ChatService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var idle []*Conversation
	for userID, active := range s.conversations {
		if active.lastUsed.After(cutoff) || active.conv.Sending() {
			continue
		}
		idle = append(idle, active.conv)
		delete(s.conversations, userID)
	}
	s.mu.Unlock()

	for _, c := range idle {
		c.Flush()
	}
	if len(idle) > 0 {
		slog.Debug("evicted idle conversations", "count", len(idle))
	}
	return len(idle)
}

type SessionSummary struct {
	ID        string    `json:"id"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSessions returns the user's stored conversations, most recently updated first.
func (s *ChatService) ListSessions(ctx context.Context, u auth.UserContext) ([]SessionSummary, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListSessions(ctx, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}

	out := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		preview := session.FirstUserMessage
		if preview == "" {
			preview = DefaultPreview
		}
		out = append(out, SessionSummary{ID: session.ID, Preview: preview, UpdatedAt: session.UpdatedAt})
	}
	return out, nil
}

// Close writes every pending conversation before the process exits.
func (s *ChatService) Close() {
	if n := s.debouncer.FlushAll(); n > 0 {
		slog.Info("flushed pending chat sessions", "count", n)
	}
}
