package report

import (
	"encoding/json"
	"io"

	"github.com/siteporter/siteporter/internal/assets"
	"github.com/siteporter/siteporter/internal/model"
)

// JSONWriter outputs summaries in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is the serialized shape of a crawl summary.
//
// Design decision: We wrap the result rather than serializing Summary
// directly because this allows us to add output-specific fields (like the
// tool version) without polluting the core data structures.
type JSONReport struct {
	// Version is the siteporter version that generated this report.
	Version string `json:"version,omitempty"`

	// Result is the full crawl outcome.
	Result *model.CrawlResult `json:"result"`

	// Manifest describes the downloaded assets, when present.
	Manifest *assets.Manifest `json:"manifest,omitempty"`
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *Summary) (int, error) {
	return w.writeJSON(&JSONReport{
		Result:   summary.Result,
		Manifest: summary.Manifest,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// VersionedJSONWriter outputs summaries wrapped with the tool version.
type VersionedJSONWriter struct {
	*JSONWriter

	// version is the siteporter version string.
	version string
}

// NewVersionedJSONWriter creates a writer that stamps each report with the
// given version string.
func NewVersionedJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *VersionedJSONWriter {
	return &VersionedJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the summary wrapped with version metadata.
func (w *VersionedJSONWriter) Write(summary *Summary) (int, error) {
	return w.writeJSON(&JSONReport{
		Version:  w.version,
		Result:   summary.Result,
		Manifest: summary.Manifest,
	})
}
