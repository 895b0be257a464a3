package core

import (
	"strings"
	"time"

	"gwi.com/journal-companion/internal/store"
)

const companionInstruction = `ROLE: Compassionate and empathetic journal companion.
TASK: Help users reflect on their thoughts and feelings, provide emotional support, and encourage healthy journaling habits.
RULES:
  - Be warm, understanding, and ask thoughtful follow-up questions.
  - Keep responses concise but meaningful.
USER JOURNAL ENTRIES:`

// PromptOptions controls how journal context is rendered.
type PromptOptions struct {
	ContextEntries int
	Location       *time.Location
}

// BuildCompletionRequest turns the prior conversation and the new user text
// into a request. history is every message before newText, greeting included.
func BuildCompletionRequest(history []ChatMessage, newText string, recent []store.Entry, opts PromptOptions) CompletionRequest {
	var system strings.Builder
	system.WriteString(companionInstruction)
	if journal := RenderJournalContext(recent, opts.ContextEntries, opts.Location); journal != "" {
		system.WriteString("\n\n")
		system.WriteString(journal)
	} else {
		system.WriteString("\nNo journal entries yet.")
	}

	msgs := make([]CompletionMessage, 0, len(history)+1)
	for _, m := range history {
		role := RoleAssistant
		if m.Sender == SenderUser {
			role = RoleUser
		}
		msgs = append(msgs, CompletionMessage{Role: role, Content: m.Text})
	}
	msgs = append(msgs, CompletionMessage{Role: RoleUser, Content: newText})

	return CompletionRequest{System: system.String(), Messages: msgs}
}
