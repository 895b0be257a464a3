package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"gwi.com/journal-companion/internal/store"
)

var csvHeader = []string{"id", "title", "content", "sentiment", "created_at", "user_id"}

// CSVExporter writes one row per entry. Unrated entries have an empty sentiment.
type CSVExporter struct{}

func (e *CSVExporter) Export(entries []store.Entry, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, entry := range entries {
		sentiment := ""
		if entry.Sentiment != nil {
			sentiment = strconv.Itoa(*entry.Sentiment)
		}
		createdAt := ""
		if !entry.CreatedAt.IsZero() {
			createdAt = entry.CreatedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(entry.ID, 10),
			entry.Title,
			entry.Content,
			sentiment,
			createdAt,
			entry.UserID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (e *CSVExporter) Extension() string {
	return "csv"
}

func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}
