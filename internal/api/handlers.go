package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/core"
	"gwi.com/journal-companion/internal/store"
)

const minPasswordLength = 6

type APIHandler struct {
	users   store.UserStore
	entries *core.EntryService
	chat    *core.ChatService
}

func NewAPIHandler(users store.UserStore, entries *core.EntryService, chat *core.ChatService) *APIHandler {
	return &APIHandler{users: users, entries: entries, chat: chat}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.users.GetUserByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "User not found", http.StatusUnauthorized)
				return
			}
			slog.Error("failed to load user for token", "user_id", userID, "error", err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		ctx := auth.WithUser(r.Context(), auth.UserContext{UserID: user.ID, Email: user.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *CredentialsRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.normalize()

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}
	if !strings.Contains(req.Email, "@") {
		http.Error(w, "Email address is not valid", http.StatusBadRequest)
		return
	}
	if len(req.Password) < minPasswordLength {
		http.Error(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "email", req.Email, "error", err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			http.Error(w, "An account with this email already exists", http.StatusConflict)
			return
		}
		slog.Error("failed to create user", "email", req.Email, "error", err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.normalize()

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to look up user", "email", req.Email, "error", err)
	}
	if err != nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		slog.Error("failed to generate JWT", "user_id", user.ID, "error", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps service errors onto status codes. Unexpected errors are
// logged and reported as 500 without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var decodeErr *core.SessionDecodeError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrEmptyMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, core.ErrSendInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &decodeErr):
		http.Error(w, "Stored conversation could not be read", http.StatusUnprocessableEntity)
	default:
		slog.Error("request failed", "action", action, "path", r.URL.Path, "error", err)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}
