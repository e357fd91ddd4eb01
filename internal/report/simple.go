package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to report are shown.
	showEmpty bool

	// verbose enables the per-page listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the per-page listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeLevels(&sb, summary)
	w.writeAssets(&sb, summary)
	w.writeFailures(&sb, summary)
	if w.verbose {
		w.writePages(&sb, summary)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with job information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	result := summary.Result

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      SITE MIGRATION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed:           %s\n", result.Seed))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", summary.Duration().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", len(result.Pages)))

	if result.BudgetExhausted {
		sb.WriteString("Status:         BUDGET REACHED (partial site)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeLevels writes the per-level page counts.
func (w *SimpleWriter) writeLevels(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TRAVERSAL LEVELS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, level := range summary.Levels() {
		sb.WriteString(fmt.Sprintf("  Level %d (%s): %d page(s)\n",
			level, levelLabel(level), summary.Result.LevelCounts[level]))
	}
	sb.WriteString("\n")
}

// writeAssets writes the asset download statistics.
func (w *SimpleWriter) writeAssets(sb *strings.Builder, summary *Summary) {
	if summary.Manifest == nil && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ASSETS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if summary.Manifest == nil {
		sb.WriteString("  Asset downloading disabled\n\n")
		return
	}

	stats := summary.Manifest.Statistics
	sb.WriteString(fmt.Sprintf("  Referenced URLs: %d\n", stats.TotalURLs))
	sb.WriteString(fmt.Sprintf("  Unique Files:    %d\n", stats.UniqueFiles))
	sb.WriteString(fmt.Sprintf("  Duplicates:      %d\n", stats.Duplicates))
	sb.WriteString(fmt.Sprintf("  Failed:          %d\n", stats.Failed))
	sb.WriteString(fmt.Sprintf("  Total Size:      %s\n", formatBytes(stats.TotalSizeBytes)))
	sb.WriteString("\n")
}

// writeFailures writes the fetch failure listing.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *Summary) {
	failed := summary.Result.Failed
	if len(failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FETCH FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failed) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, f := range failed {
			sb.WriteString(fmt.Sprintf("  [!] %s (level %d): %s\n", f.URL, f.Level, f.Reason))
		}
	}
	sb.WriteString("\n")
}

// writePages writes the per-page listing in visit order.
func (w *SimpleWriter) writePages(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, page := range summary.Result.Pages {
		title := page.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(fmt.Sprintf("  [%d] %s\n      %s\n", page.Level, title, page.URL))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by siteporter\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
