package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com"
	defaultDeepSeekModel   = "deepseek-chat"
)

// DeepSeekClient talks to an OpenAI-compatible chat completions endpoint.
type DeepSeekClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewDeepSeekClient(apiKey, baseURL, model string, timeout time.Duration) *DeepSeekClient {
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	if model == "" {
		model = defaultDeepSeekModel
	}
	return &DeepSeekClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []CompletionMessage `json:"messages"`
	Temperature float32             `json:"temperature"`
	MaxTokens   int32               `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *DeepSeekClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]CompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, CompletionMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return "", &CompletionError{Provider: "deepseek", Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &CompletionError{Provider: "deepseek", Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &CompletionError{Provider: "deepseek", Err: fmt.Errorf("chat request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CompletionError{Provider: "deepseek", StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("API error: %d", resp.StatusCode)
		var apiErr apiErrorBody
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &CompletionError{Provider: "deepseek", StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &CompletionError{Provider: "deepseek", StatusCode: resp.StatusCode, Err: fmt.Errorf("parse response: %w", err)}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &CompletionError{Provider: "deepseek", StatusCode: resp.StatusCode, Err: ErrEmptyReply}
	}
	return out.Choices[0].Message.Content, nil
}
