package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gwi.com/journal-companion/internal/stats"
	"gwi.com/journal-companion/internal/store"
)

const (
	DefaultContextEntries = 20
	entryDateLayout       = "Jan 2, 2006, 3:04 PM"
)

// RenderJournalContext renders up to limit of the newest entries for the
// system prompt. It returns "" when there is nothing to show.
func RenderJournalContext(entries []store.Entry, limit int, loc *time.Location) string {
	if len(entries) == 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	if limit <= 0 {
		limit = DefaultContextEntries
	}

	sorted := make([]store.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	blocks := make([]string, 0, len(sorted))
	for _, e := range sorted {
		blocks = append(blocks, fmt.Sprintf("[%s] Sentiment: %s\nTitle: %s\nContent: %s",
			e.CreatedAt.In(loc).Format(entryDateLayout), stats.SentimentLabel(e.Sentiment), e.Title, e.Content))
	}

	var b strings.Builder
	b.WriteString("User's Recent Journal Entries:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	return b.String()
}
