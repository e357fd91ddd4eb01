package model

import "time"

// CrawlResult is the aggregate outcome of one crawl job.
// It is the unit consumed by export adapters, report writers, and the
// history database.
type CrawlResult struct {
	// Seed is the root URL the crawl started from.
	Seed string `json:"seed"`

	// StartedAt and FinishedAt bound the crawl wall-clock time.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Pages contains every successfully fetched page, in visit order.
	Pages []*Page `json:"pages"`

	// Failed contains every URL whose fetch failed. Failures are terminal
	// per URL; the crawl continues past them.
	Failed []FetchFailure `json:"failed,omitempty"`

	// LevelCounts maps traversal level to the number of pages registered
	// at that level.
	LevelCounts map[int]int `json:"level_counts"`

	// BudgetExhausted is true when the crawl stopped because the page
	// budget was reached rather than the frontier draining.
	BudgetExhausted bool `json:"budget_exhausted,omitempty"`
}

// FetchFailure records one terminal per-URL fetch failure.
type FetchFailure struct {
	// URL is the page that failed to fetch.
	URL string `json:"url"`

	// Level is the traversal level the URL was registered at.
	Level int `json:"level"`

	// Reason is a short description of the failure.
	Reason string `json:"reason"`
}

// ImageURLs returns the de-duplicated set of image source URLs referenced
// across all pages, in first-seen order. Two pages linking the same image
// URL collapse to one entry.
func (r *CrawlResult) ImageURLs() []string {
	seen := make(map[string]bool)
	urls := make([]string, 0)
	for _, page := range r.Pages {
		for _, img := range page.Images {
			if img.Source == "" || seen[img.Source] {
				continue
			}
			seen[img.Source] = true
			urls = append(urls, img.Source)
		}
	}
	return urls
}

// ResolveImagePaths fills in LocalPath on every page image whose source URL
// has a record in the given map. Duplicate content resolves to the
// canonical file of the first download.
func (r *CrawlResult) ResolveImagePaths(records map[string]*AssetRecord) {
	for _, page := range r.Pages {
		for i := range page.Images {
			rec, ok := records[page.Images[i].Source]
			if !ok || rec.Failed {
				continue
			}
			page.Images[i].LocalPath = rec.LocalPath
		}
	}
}
