package export

import (
	"encoding/json"
	"io"

	"gwi.com/journal-companion/internal/store"
)

// JSONExporter exports entries as a pretty-printed JSON array
type JSONExporter struct{}

func (e *JSONExporter) Export(entries []store.Entry, w io.Writer) error {
	if entries == nil {
		entries = []store.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(entries)
}

func (e *JSONExporter) Extension() string {
	return "json"
}

func (e *JSONExporter) ContentType() string {
	return "application/json"
}
