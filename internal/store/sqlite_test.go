package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "a@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := s.CreateUser(ctx, "a@example.com", "other"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrDuplicate", err)
	}

	byEmail, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || byEmail.ID != u.ID || byEmail.PasswordHash != "hash" {
		t.Errorf("GetUserByEmail() = %+v, %v", byEmail, err)
	}
	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestEntriesAndChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var events []ChangeEvent
	cancel := s.Changes().Subscribe("u1", func(ev ChangeEvent) { events = append(events, ev) })
	defer cancel()

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	five := 5
	for i, e := range []*Entry{
		{UserID: "u1", Title: "old", Content: "a", CreatedAt: base},
		{UserID: "u1", Title: "new", Content: "b", Sentiment: &five, CreatedAt: base.Add(time.Hour)},
		{UserID: "u2", Title: "theirs", Content: "c", CreatedAt: base},
	} {
		if err := s.InsertEntry(ctx, e); err != nil {
			t.Fatalf("InsertEntry(%d) error = %v", i, err)
		}
	}

	entries, err := s.ListEntries(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "new" || entries[1].Title != "old" {
		t.Fatalf("ListEntries() = %+v, want newest first", entries)
	}
	if entries[0].Sentiment == nil || *entries[0].Sentiment != 5 || entries[1].Sentiment != nil {
		t.Errorf("sentiments not preserved: %+v", entries)
	}
	if !entries[1].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", entries[1].CreatedAt, base)
	}

	limited, _ := s.ListEntries(ctx, "u1", 1)
	if len(limited) != 1 || limited[0].Title != "new" {
		t.Errorf("ListEntries(limit 1) = %+v", limited)
	}

	if err := s.DeleteEntry(ctx, "u2", entries[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user DeleteEntry() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteEntry(ctx, "u1", entries[0].ID); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}
	n, err := s.DeleteAllEntries(ctx, "u1")
	if err != nil || n != 1 {
		t.Errorf("DeleteAllEntries() = %d, %v", n, err)
	}

	wantOps := []ChangeOp{OpInsert, OpInsert, OpDelete, OpDelete}
	if len(events) != len(wantOps) {
		t.Fatalf("got %d events for u1, want %d: %+v", len(events), len(wantOps), events)
	}
	for i, op := range wantOps {
		if events[i].Op != op || events[i].UserID != "u1" {
			t.Errorf("event %d = %+v, want op %s", i, events[i], op)
		}
	}

	cancel()
	_ = s.InsertEntry(ctx, &Entry{UserID: "u1", Title: "t", Content: "c"})
	if len(events) != len(wantOps) {
		t.Error("cancelled subscriber still received events")
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &ChatSession{UserID: "u1", Messages: []byte(`[{"id":"1"}]`), FirstUserMessage: "first"}
	second := &ChatSession{UserID: "u1", Messages: []byte(`[]`), FirstUserMessage: "second"}
	if err := s.CreateSession(ctx, first); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := s.CreateSession(ctx, second); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("session ids %q and %q", first.ID, second.ID)
	}

	time.Sleep(2 * time.Millisecond)
	if err := s.UpdateSession(ctx, "u1", first.ID, SessionPatch{Messages: []byte(`[{"id":"1"},{"id":"2"}]`), FirstUserMessage: "first!"}); err != nil {
		t.Fatalf("UpdateSession() error = %v", err)
	}

	sessions, err := s.ListSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != first.ID {
		t.Fatalf("ListSessions() = %+v, want most recently updated first", sessions)
	}
	if sessions[0].FirstUserMessage != "first!" || string(sessions[0].Messages) != `[{"id":"1"},{"id":"2"}]` {
		t.Errorf("updated session = %+v", sessions[0])
	}

	if _, err := s.GetSession(ctx, "u2", first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user GetSession() error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSession(ctx, "u1", "missing", SessionPatch{Messages: []byte(`[]`)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSession(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSession(ctx, "u1", second.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.GetSession(ctx, "u1", second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession(deleted) error = %v, want ErrNotFound", err)
	}
}
