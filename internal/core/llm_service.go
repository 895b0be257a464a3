package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	defaultTemperature = float32(0.7)
	defaultMaxTokens   = int32(500)
)

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a system prompt plus the ordered turns. The last turn
// is always the user message being answered.
type CompletionRequest struct {
	System   string
	Messages []CompletionMessage
}

// CompletionClient returns a single reply for a request. Failures are
// reported as *CompletionError.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

const defaultGeminiModel = "gemini-1.5-flash-latest"

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Close() {
	if c.client == nil {
		return
	}
	if err := c.client.Close(); err != nil {
		slog.Error("error closing GenAI client", "error", err)
	}
}

func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", &CompletionError{Provider: "gemini", Err: fmt.Errorf("prompt history is empty")}
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != RoleUser {
		return "", &CompletionError{Provider: "gemini", Err: fmt.Errorf("last message is from %q, not the user", last.Role)}
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(defaultTemperature)
	model.SetMaxOutputTokens(defaultMaxTokens)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	session := model.StartChat()
	session.History = geminiHistory(req.Messages[:len(req.Messages)-1])

	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", &CompletionError{Provider: "gemini", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &CompletionError{Provider: "gemini", Err: ErrEmptyReply}
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		} else {
			slog.Debug("ignoring non-text Gemini response part", "type", fmt.Sprintf("%T", part))
		}
	}
	if strings.TrimSpace(reply.String()) == "" {
		return "", &CompletionError{Provider: "gemini", Err: ErrEmptyReply}
	}
	return reply.String(), nil
}

// Gemini names the assistant role "model" and expects the user to speak
// first, so leading assistant turns such as the greeting are dropped.
func geminiHistory(msgs []CompletionMessage) []*genai.Content {
	for len(msgs) > 0 && msgs[0].Role == RoleAssistant {
		msgs = msgs[1:]
	}
	history := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return history
}
