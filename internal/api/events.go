package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/store"
)

const eventsKeepAlive = 25 * time.Second

// EntryEventsHandler streams a "change" server-sent event whenever one of the
// user's entries is inserted or deleted.
func (h *APIHandler) EntryEventsHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "subscribe to entries")
		return
	}

	events := make(chan store.ChangeEvent, 16)
	cancel, err := h.entries.Subscribe(u, func(ev store.ChangeEvent) {
		select {
		case events <- ev:
		default:
			// A refresh is already queued for this client.
		}
	})
	if err != nil {
		respondError(w, r, err, "subscribe to entries")
		return
	}
	defer cancel()

	rc := http.NewResponseController(w)
	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		slog.Error("event stream does not support flushing", "error", err)
		return
	}

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("failed to encode change event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
