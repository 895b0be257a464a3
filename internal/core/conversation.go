package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/store"
)

const (
	DefaultPersistDebounce   = 2 * time.Second
	DefaultCompletionTimeout = 60 * time.Second
	persistTimeout           = 15 * time.Second
)

type ChatOptions struct {
	PersistDebounce   time.Duration
	CompletionTimeout time.Duration
	ContextEntries    int
	Location          *time.Location
}

func (o ChatOptions) withDefaults() ChatOptions {
	if o.PersistDebounce <= 0 {
		o.PersistDebounce = DefaultPersistDebounce
	}
	if o.CompletionTimeout <= 0 {
		o.CompletionTimeout = DefaultCompletionTimeout
	}
	if o.ContextEntries <= 0 {
		o.ContextEntries = DefaultContextEntries
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// thread is one conversation's message list together with the session it is
// stored under. Fields other than key and persistMu are guarded by
// Conversation.mu.
type thread struct {
	key       string
	sessionID string
	messages  []ChatMessage
	deleted   bool

	persistMu sync.Mutex
}

// Exchange is the outcome of one Send. When the completion failed, Fallback is
// set, Reply carries FallbackReply and CompletionErr the cause.
type Exchange struct {
	User          ChatMessage `json:"user"`
	Reply         ChatMessage `json:"reply"`
	Fallback      bool        `json:"fallback"`
	CompletionErr error       `json:"-"`
}

// Conversation owns the active chat of one user.
type Conversation struct {
	user      auth.UserContext
	sessions  store.SessionStore
	entries   store.EntryStore
	completer CompletionClient
	debouncer *Debouncer
	opts      ChatOptions

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	current *thread
	sending bool
}

func NewConversation(u auth.UserContext, sessions store.SessionStore, entries store.EntryStore, completer CompletionClient, debouncer *Debouncer, opts ChatOptions) (*Conversation, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if debouncer == nil {
		debouncer = NewDebouncer(opts.PersistDebounce)
	}

	c := &Conversation{
		user:      u,
		sessions:  sessions,
		entries:   entries,
		completer: completer,
		debouncer: debouncer,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	c.current = c.newThread("", []ChatMessage{c.greeting()})
	return c, nil
}

func (c *Conversation) greeting() ChatMessage {
	return ChatMessage{ID: c.newID(), Text: GreetingText, Sender: SenderAI, Timestamp: c.now().UTC()}
}

func (c *Conversation) newThread(sessionID string, msgs []ChatMessage) *thread {
	return &thread{key: c.user.UserID + "/" + c.newID(), sessionID: sessionID, messages: msgs}
}

// StartNew discards nothing remotely: the previous conversation keeps its
// pending persist, and the new one is only stored after its first exchange.
func (c *Conversation) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.newThread("", []ChatMessage{c.greeting()})
}

func (c *Conversation) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.current.messages)
}

// SessionID is empty until the active conversation has been stored.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.sessionID
}

func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send appends text as a user message and asks the completion service for a
// reply. A failed completion is not an error: the fallback reply is appended
// instead and the cause is returned in the Exchange.
func (c *Conversation) Send(ctx context.Context, text string) (Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Exchange{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return Exchange{}, ErrSendInProgress
	}
	c.sending = true
	t := c.current
	history := slices.Clone(t.messages)
	userMsg := ChatMessage{ID: c.newID(), Text: text, Sender: SenderUser, Timestamp: c.now().UTC()}
	t.messages = append(t.messages, userMsg)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	c.schedulePersist(t)

	req := BuildCompletionRequest(history, text, c.recentEntries(ctx), PromptOptions{
		ContextEntries: c.opts.ContextEntries,
		Location:       c.opts.Location,
	})

	cctx, cancel := context.WithTimeout(ctx, c.opts.CompletionTimeout)
	replyText, err := c.completer.Complete(cctx, req)
	cancel()

	ex := Exchange{User: userMsg}
	if err != nil {
		slog.Warn("completion failed, replying with fallback", "user_id", c.user.UserID, "error", err)
		replyText = FallbackReply
		ex.Fallback = true
		ex.CompletionErr = err
	}

	ex.Reply = ChatMessage{ID: c.newID(), Text: replyText, Sender: SenderAI, Timestamp: c.now().UTC()}
	c.mu.Lock()
	t.messages = append(t.messages, ex.Reply)
	c.mu.Unlock()

	c.schedulePersist(t)
	return ex, nil
}

// recentEntries never fails the send: without entries the prompt simply has
// no journal context.
func (c *Conversation) recentEntries(ctx context.Context) []store.Entry {
	if c.entries == nil {
		return nil
	}
	entries, err := c.entries.ListEntries(ctx, c.user.UserID, c.opts.ContextEntries)
	if err != nil {
		slog.Warn("failed to load journal context, continuing without it", "user_id", c.user.UserID, "error", err)
		return nil
	}
	return entries
}

func (c *Conversation) schedulePersist(t *thread) {
	c.debouncer.Schedule(t.key, func() { c.persist(t) })
}

// persist writes the thread's latest messages. Runs for one thread are
// serialized so that a slow create is never repeated by the next run.
func (c *Conversation) persist(t *thread) {
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	c.mu.Lock()
	msgs := slices.Clone(t.messages)
	sessionID := t.sessionID
	deleted := t.deleted
	c.mu.Unlock()

	if deleted || len(msgs) <= 1 {
		return
	}

	data, err := EncodeMessages(msgs)
	if err != nil {
		slog.Error("failed to encode chat session", "user_id", c.user.UserID, "error", err)
		return
	}
	preview := Preview(msgs)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if sessionID != "" {
		err := c.sessions.UpdateSession(ctx, c.user.UserID, sessionID, store.SessionPatch{Messages: data, FirstUserMessage: preview})
		if err != nil {
			slog.Error("failed to update chat session", "user_id", c.user.UserID, "session_id", sessionID, "error", err)
		}
		return
	}

	session := &store.ChatSession{UserID: c.user.UserID, Messages: data, FirstUserMessage: preview}
	if err := c.sessions.CreateSession(ctx, session); err != nil {
		slog.Error("failed to create chat session", "user_id", c.user.UserID, "error", err)
		return
	}

	c.mu.Lock()
	t.sessionID = session.ID
	c.mu.Unlock()
	slog.Debug("chat session created", "user_id", c.user.UserID, "session_id", session.ID)
}

// Flush writes the active conversation now if a persist is pending.
func (c *Conversation) Flush() {
	c.mu.Lock()
	key := c.current.key
	c.mu.Unlock()
	c.debouncer.Flush(key)
}

func (c *Conversation) Load(ctx context.Context, sessionID string) error {
	session, err := c.sessions.GetSession(ctx, c.user.UserID, sessionID)
	if err != nil {
		return fmt.Errorf("load chat session: %w", err)
	}
	return c.LoadSession(session)
}

// LoadSession makes session the active conversation. The current state is
// left untouched when the stored messages cannot be decoded.
func (c *Conversation) LoadSession(session *store.ChatSession) error {
	if session.UserID != "" && session.UserID != c.user.UserID {
		return fmt.Errorf("chat session %s: %w", session.ID, store.ErrNotFound)
	}
	msgs, err := DecodeMessages(session.Messages)
	if err != nil {
		return &SessionDecodeError{SessionID: session.ID, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.newThread(session.ID, msgs)
	return nil
}

// Delete removes a stored session. Deleting the active session starts a new
// conversation and drops its pending persist.
func (c *Conversation) Delete(ctx context.Context, sessionID string) error {
	if err := c.sessions.DeleteSession(ctx, c.user.UserID, sessionID); err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}

	c.mu.Lock()
	active := c.current
	if active.sessionID != sessionID {
		c.mu.Unlock()
		return nil
	}
	active.deleted = true
	c.current = c.newThread("", []ChatMessage{c.greeting()})
	c.mu.Unlock()

	c.debouncer.Cancel(active.key)
	return nil
}
