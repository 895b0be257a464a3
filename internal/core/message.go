package core

import (
	"encoding/json"
	"fmt"
	"time"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

const (
	GreetingText   = "Hello! I'm your journal companion. How are you feeling today?"
	FallbackReply  = "I'm having trouble connecting right now. Please try again in a moment."
	DefaultPreview = "New conversation"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// EncodeMessages produces the stored form of a message list.
func EncodeMessages(msgs []ChatMessage) (json.RawMessage, error) {
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode chat messages: %w", err)
	}
	return data, nil
}

// DecodeMessages parses a stored message list and rejects entries that lack
// an id or a known sender.
func DecodeMessages(data []byte) ([]ChatMessage, error) {
	var msgs []ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		return nil, fmt.Errorf("message list is null")
	}
	for i, m := range msgs {
		if m.ID == "" {
			return nil, fmt.Errorf("message %d has no id", i)
		}
		if m.Sender != SenderUser && m.Sender != SenderAI {
			return nil, fmt.Errorf("message %d has unknown sender %q", i, m.Sender)
		}
	}
	return msgs, nil
}

// Preview is the text shown for a conversation in the session list.
func Preview(msgs []ChatMessage) string {
	for _, m := range msgs {
		if m.Sender == SenderUser {
			return m.Text
		}
	}
	return DefaultPreview
}
