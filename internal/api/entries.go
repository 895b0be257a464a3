package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gwi.com/journal-companion/internal/auth"
	"gwi.com/journal-companion/internal/core"
	"gwi.com/journal-companion/internal/export"
	"gwi.com/journal-companion/internal/stats"
)

func (h *APIHandler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "list entries")
		return
	}

	var filter core.EntryFilter
	q := r.URL.Query()
	filter.Query = q.Get("q")
	if s := q.Get("sentiment"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || !stats.ValidSentiment(v) {
			http.Error(w, "sentiment must be between 1 and 5", http.StatusBadRequest)
			return
		}
		filter.Sentiment = &v
	}
	if d := q.Get("day"); d != "" {
		day, err := time.ParseInLocation(time.DateOnly, d, time.UTC)
		if err != nil {
			http.Error(w, "day must be formatted as YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.Day = &day
	}

	entries, err := h.entries.List(r.Context(), u, filter)
	if err != nil {
		respondError(w, r, err, "list entries")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) GroupedEntriesHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "group entries")
		return
	}
	groups, err := h.entries.Grouped(r.Context(), u)
	if err != nil {
		respondError(w, r, err, "group entries")
		return
	}
	if groups == nil {
		groups = []core.DayGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *APIHandler) CreateEntryHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "create entry")
		return
	}

	var req core.NewEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.entries.Create(r.Context(), u, req)
	if err != nil {
		respondError(w, r, err, "create entry")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *APIHandler) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "delete entry")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return
	}

	if err := h.entries.Delete(r.Context(), u, id); err != nil {
		respondError(w, r, err, "delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) DeleteAllEntriesHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "delete entries")
		return
	}
	n, err := h.entries.DeleteAll(r.Context(), u)
	if err != nil {
		respondError(w, r, err, "delete entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *APIHandler) ExportEntriesHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "export entries")
		return
	}
	exporter, err := export.NewExporter(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.entries.List(r.Context(), u, core.EntryFilter{})
	if err != nil {
		respondError(w, r, err, "export entries")
		return
	}

	filename := fmt.Sprintf("journal_entries_%s.%s", time.Now().Format(time.DateOnly), exporter.Extension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := exporter.Export(entries, w); err != nil {
		respondError(w, r, err, "export entries")
	}
}

type statsResponse struct {
	stats.Stats
	AverageMood float64 `json:"average_mood"`
	MoodEmoji   string  `json:"mood_emoji"`
}

func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "compute stats")
		return
	}
	st, err := h.entries.Stats(r.Context(), u)
	if err != nil {
		respondError(w, r, err, "compute stats")
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(st))
}

func newStatsResponse(st stats.Stats) statsResponse {
	mood := stats.DisplayMood(st.AverageMood)
	return statsResponse{
		Stats:       st,
		AverageMood: mood.InexactFloat64(),
		MoodEmoji:   stats.MoodEmoji(mood),
	}
}

func (h *APIHandler) StreakHandler(w http.ResponseWriter, r *http.Request) {
	u, err := auth.UserFromContext(r.Context())
	if err != nil {
		respondError(w, r, err, "compute streak")
		return
	}
	st, err := h.entries.Stats(r.Context(), u)
	if err != nil {
		respondError(w, r, err, "compute streak")
		return
	}
	writeJSON(w, http.StatusOK, st.Streak())
}
