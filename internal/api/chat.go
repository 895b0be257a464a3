package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/core"
)

const completionNotice = "Unable to get a response. Please check your connection and try again."

type conversationResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	Messages  []core.ChatMessage `json:"messages"`
	Sending   bool               `json:"sending"`
}

func viewOf(c *core.Conversation) conversationResponse {
	return conversationResponse{SessionID: c.SessionID(), Messages: c.Messages(), Sending: c.Sending()}
}

func (h *APIHandler) conversation(w http.ResponseWriter, r *http.Request, action string) (*core.Conversation, bool) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, action)
		return nil, false
	}
	c, err := h.chat.Conversation(u)
	if err != nil {
		respondError(w, r, err, action)
		return nil, false
	}
	return c, true
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversation(w, r, "load conversation")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	core.Exchange
	Notice string `json:"notice,omitempty"`
}

func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversation(w, r, "send message")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ex, err := c.Send(r.Context(), req.Text)
	if err != nil {
		respondError(w, r, err, "send message")
		return
	}

	resp := sendMessageResponse{Exchange: ex}
	if ex.Fallback {
		resp.Notice = completionNotice
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) NewConversationHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversation(w, r, "start conversation")
	if !ok {
		return
	}
	c.StartNew()
	writeJSON(w, http.StatusCreated, viewOf(c))
}

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "list sessions")
		return
	}
	sessions, err := h.chat.ListSessions(r.Context(), u)
	if err != nil {
		respondError(w, r, err, "list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *APIHandler) LoadSessionHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversation(w, r, "load session")
	if !ok {
		return
	}
	if err := c.Load(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err, "load session")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(c))
}

func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := h.conversation(w, r, "delete session")
	if !ok {
		return
	}
	if err := c.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err, "delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
