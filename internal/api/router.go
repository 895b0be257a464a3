package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gwi.com/journal-companion/internal/logging"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Entry routes
			r.Route("/entries", func(r chi.Router) {
				r.Get("/", apiHandler.ListEntriesHandler)
				r.Post("/", apiHandler.CreateEntryHandler)
				r.Delete("/", apiHandler.DeleteAllEntriesHandler)
				r.Get("/grouped", apiHandler.GroupedEntriesHandler)
				r.Get("/export", apiHandler.ExportEntriesHandler)
				r.Get("/events", apiHandler.EntryEventsHandler)
				r.Delete("/{entryID}", apiHandler.DeleteEntryHandler)
			})

			// Statistics routes
			r.Get("/stats", apiHandler.StatsHandler)
			r.Get("/stats/streak", apiHandler.StreakHandler)

			// Chat routes
			r.Route("/chat", func(r chi.Router) {
				r.Get("/", apiHandler.GetConversationHandler)
				r.Post("/messages", apiHandler.SendMessageHandler)
				r.Post("/new", apiHandler.NewConversationHandler)
				r.Get("/sessions", apiHandler.ListSessionsHandler)
				r.Post("/sessions/{sessionID}/load", apiHandler.LoadSessionHandler)
				r.Delete("/sessions/{sessionID}", apiHandler.DeleteSessionHandler)
			})
		})
	})

	return r
}
