package export

import (
	"io"

	"gopkg.in/yaml.v3"
	"gwi.com/journal-companion/internal/store"
)

// YAMLExporter exports entries as a YAML sequence
type YAMLExporter struct{}

func (e *YAMLExporter) Export(entries []store.Entry, w io.Writer) error {
	if entries == nil {
		entries = []store.Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(entries)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}

func (e *YAMLExporter) ContentType() string {
	return "application/yaml"
}
