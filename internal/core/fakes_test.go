package core

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/store"
)

var testUser = auth.UserContext{UserID: "user-1", Email: "user@example.com"}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]store.ChatSession
	creates  int
	updates  int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]store.ChatSession)}
}

func (m *memSessionStore) ListSessions(ctx context.Context, userID string) ([]store.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memSessionStore) GetSession(ctx context.Context, userID, id string) (*store.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *memSessionStore) CreateSession(ctx context.Context, session *store.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	m.sessions[session.ID] = *session
	m.creates++
	return nil
}

func (m *memSessionStore) UpdateSession(ctx context.Context, userID, id string, patch store.SessionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return store.ErrNotFound
	}
	s.Messages = patch.Messages
	s.FirstUserMessage = patch.FirstUserMessage
	s.UpdatedAt = time.Now()
	m.sessions[id] = s
	m.updates++
	return nil
}

func (m *memSessionStore) DeleteSession(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memSessionStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memSessionStore) writes() (creates, updates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.updates
}

func (m *memSessionStore) only() store.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		return s
	}
	return store.ChatSession{}
}

func (m *memSessionStore) put(s store.ChatSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *memSessionStore) decoded(id string) []ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var msgs []ChatMessage
	_ = json.Unmarshal(m.sessions[id].Messages, &msgs)
	return msgs
}

// stubEntries serves a fixed entry list, or err.
type stubEntries struct {
	entries []store.Entry
	err     error
}

func (s *stubEntries) ListEntries(ctx context.Context, userID string, limit int) ([]store.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.entries) > limit {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *stubEntries) InsertEntry(ctx context.Context, entry *store.Entry) error { return nil }

func (s *stubEntries) DeleteEntry(ctx context.Context, userID string, id int64) error { return nil }

func (s *stubEntries) DeleteAllEntries(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

// fakeCompleter replies with reply, or fails with err. When gate is set each
// call announces itself on started and waits for gate before answering.
type fakeCompleter struct {
	reply   string
	err     error
	started chan struct{}
	gate    chan struct{}

	mu       sync.Mutex
	requests []CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.gate != nil {
		f.started <- struct{}{}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) lastRequest() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

var errUnavailable = errors.New("service unavailable")
