package report

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/siteporter/siteporter/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titler title-cases site section names for the sections table.
	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeLevels(md, summary)
	w.writeSections(md, summary)
	w.writeAssets(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with job information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	result := summary.Result

	md.H1("Site Migration Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + result.Seed + "`"},
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().Round(time.Millisecond).String()},
			{"Pages Crawled", strconv.Itoa(len(result.Pages))},
			{"Fetch Failures", strconv.Itoa(len(result.Failed))},
			{"Status", w.statusText(result)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on how the crawl ended.
func (w *MarkdownWriter) statusText(result *model.CrawlResult) string {
	if result.BudgetExhausted {
		return "⚠️ Page budget reached (partial site)"
	}
	return "✅ Complete"
}

// writeLevels writes the per-level page count table.
func (w *MarkdownWriter) writeLevels(md *markdown.Markdown, summary *Summary) {
	md.H2("Traversal Levels")
	md.PlainText("")

	rows := make([][]string, 0, len(summary.Result.LevelCounts))
	for _, level := range summary.Levels() {
		rows = append(rows, []string{
			strconv.Itoa(level),
			levelLabel(level),
			strconv.Itoa(summary.Result.LevelCounts[level]),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Level", "Role", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.Result.BudgetExhausted {
		md.Warning("The page budget was exhausted before the site was fully traversed. Increase --max-pages for complete coverage.")
		md.PlainText("")
	}
}

// levelLabel names the role a traversal level plays.
func levelLabel(level int) string {
	switch level {
	case 0:
		return "Legal pages"
	case 1:
		return "Seed"
	default:
		return fmt.Sprintf("Depth %d", level-1)
	}
}

// writeSections writes the per-section page counts, grouping pages by the
// first two path segments of their URL.
func (w *MarkdownWriter) writeSections(md *markdown.Markdown, summary *Summary) {
	counts := make(map[string]int)
	for _, page := range summary.Result.Pages {
		section := w.sectionName(page.URL)
		if section == "" {
			continue
		}
		counts[section]++
	}
	if len(counts) == 0 {
		return
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{w.titler.String(name), strconv.Itoa(counts[name])})
	}

	md.H2("Site Sections")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Section", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// sectionName derives a human section name from a page URL's leading path
// segments.
func (w *MarkdownWriter) sectionName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	segments := make([]string, 0, 2)
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, strings.ReplaceAll(seg, "-", " "))
		if len(segments) == 2 {
			break
		}
	}
	return strings.Join(segments, " / ")
}

// writeAssets writes the asset download section with a pie chart of the
// dedup outcome.
func (w *MarkdownWriter) writeAssets(md *markdown.Markdown, summary *Summary) {
	md.H2("Assets")
	md.PlainText("")

	if summary.Manifest == nil {
		md.PlainText("Asset downloading was disabled for this job.")
		md.PlainText("")
		return
	}

	stats := summary.Manifest.Statistics
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Referenced URLs", strconv.Itoa(stats.TotalURLs)},
			{"Unique Files", strconv.Itoa(stats.UniqueFiles)},
			{"Duplicates", strconv.Itoa(stats.Duplicates)},
			{"Failed", strconv.Itoa(stats.Failed)},
			{"Total Size", formatBytes(stats.TotalSizeBytes)},
		},
	})
	md.PlainText("")

	if stats.TotalURLs > 0 {
		w.writePieChart(md, stats.UniqueFiles, stats.Duplicates, stats.Failed)
	}

	if stats.Failed > 0 {
		md.Importantf("%d asset(s) could not be downloaded. Check the manifest for failure reasons.", stats.Failed)
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart for the asset dedup outcome.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, unique, duplicates, failed int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Asset Download Outcome"),
		piechart.WithShowData(true),
	)

	if unique > 0 {
		chart.LabelAndIntValue("Unique", uint64(unique))
	}
	if duplicates > 0 {
		chart.LabelAndIntValue("Duplicate", uint64(duplicates))
	}
	if failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFailures writes the fetch failure table.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *Summary) {
	failed := summary.Result.Failed
	if len(failed) == 0 {
		return
	}

	md.H2("Fetch Failures")
	md.PlainText("")

	rows := make([][]string, len(failed))
	for i, f := range failed {
		rows[i] = []string{
			truncateString(f.URL, 60),
			strconv.Itoa(f.Level),
			truncateString(f.Reason, 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Level", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [siteporter](https://github.com/siteporter/siteporter)*")
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
