package report

import (
	"io"
	"sort"
	"time"

	"github.com/siteporter/siteporter/internal/assets"
	"github.com/siteporter/siteporter/internal/model"
)

// Summary bundles everything a report writer needs about one crawl job:
// the traversal outcome and, when assets were downloaded, the manifest.
// Manifest may be nil for crawl-only jobs.
type Summary struct {
	// Result is the traversal outcome.
	Result *model.CrawlResult

	// Manifest describes the downloaded assets. Nil when the job skipped
	// asset downloading.
	Manifest *assets.Manifest
}

// NewSummary creates a Summary from a crawl result and an optional manifest.
func NewSummary(result *model.CrawlResult, manifest *assets.Manifest) *Summary {
	return &Summary{Result: result, Manifest: manifest}
}

// Duration returns the wall-clock time the crawl took.
func (s *Summary) Duration() time.Duration {
	return s.Result.FinishedAt.Sub(s.Result.StartedAt)
}

// Levels returns the traversal levels that registered at least one page,
// shallowest first.
func (s *Summary) Levels() []int {
	levels := make([]int, 0, len(s.Result.LevelCounts))
	for level := range s.Result.LevelCounts {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// Writer defines the interface for report output.
// Implementations write crawl summaries in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *Summary) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write summaries, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
