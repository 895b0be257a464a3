package export

import (
	"fmt"
	"io"

	"gwi.com/journal-companion/internal/store"
)

// Exporter writes a user's entries in one format
type Exporter interface {
	Export(entries []store.Entry, w io.Writer) error
	Extension() string
	ContentType() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "csv", "":
		return &CSVExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: csv, json, yaml)", format)
	}
}
