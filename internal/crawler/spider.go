package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/siteporter/siteporter/internal/model"
)

// DelayPolicy decides how long the crawl loop pauses between fetches.
//
// Design decision: The pause is behind an interface rather than a plain
// duration so a backoff strategy can be dropped in later without changing
// the crawl loop. The shipped implementation is a deliberately simple
// fixed delay; it does not adapt and does not back off on errors.
type DelayPolicy interface {
	// Wait blocks for the policy's delay or until the context is done,
	// in which case it returns the context error.
	Wait(ctx context.Context) error
}

// FixedDelay pauses for the same duration after every fetch.
type FixedDelay struct {
	// Delay is the pause duration. Zero means no pause.
	Delay time.Duration
}

// Wait implements DelayPolicy.
func (f FixedDelay) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.Delay):
		return nil
	}
}

// Spider drives the crawl: it dequeues the highest-priority URL from the
// scheduler, renders it through the fetcher, extracts links and images,
// and feeds new links back into the scheduler until the frontier drains
// or the page budget is reached.
//
// The loop is strictly sequential. Exactly one fetch is in flight at any
// time, so the scheduler needs no locking and the fixed delay fully
// controls the request rate against the origin server.
type Spider struct {
	// fetcher renders pages. See the Fetcher interface for the contract.
	fetcher Fetcher

	// extractor pulls links and images out of rendered HTML.
	extractor *Extractor

	// maxPages is the page budget for this crawl job.
	maxPages int

	// delay is applied after every fetch attempt, successful or not.
	delay DelayPolicy

	// extractImages controls whether img elements are collected. When
	// false the crawl produces pages with links only.
	extractImages bool

	// logger receives per-page progress at debug level.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the page budget.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay policy applied after every fetch.
func WithDelay(policy DelayPolicy) SpiderOption {
	return func(s *Spider) {
		s.delay = policy
	}
}

// WithImageExtraction toggles collection of img elements.
func WithImageExtraction(enabled bool) SpiderOption {
	return func(s *Spider) {
		s.extractImages = enabled
	}
}

// WithLogger sets the logger for crawl progress.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider around a fetcher and extractor.
func NewSpider(fetcher Fetcher, extractor *Extractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:       fetcher,
		extractor:     extractor,
		maxPages:      100,
		delay:         FixedDelay{Delay: 500 * time.Millisecond},
		extractImages: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Crawl runs the crawl loop from the seed URL using the given scheduler.
// Only links on the seed's host enter the frontier; everything else stays
// in the page's link list for the export adapters but is never visited.
//
// Per-URL failures are recorded on the result and never abort the crawl.
// The loop stops when the frontier is empty, the page budget is reached,
// or the context is cancelled (between fetches; an in-flight fetch is only
// bounded by its own timeout).
func (s *Spider) Crawl(ctx context.Context, scheduler *Scheduler, seedURL string) (*model.CrawlResult, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, err
	}
	if seed.Scheme == "" || seed.Host == "" {
		return nil, fmt.Errorf("%w: %s", errNotAbsolute, seedURL)
	}

	result := &model.CrawlResult{
		Seed:      seedURL,
		StartedAt: time.Now(),
		Pages:     make([]*model.Page, 0),
	}
	defer func() {
		result.FinishedAt = time.Now()
		result.LevelCounts = scheduler.LevelCounts()
	}()

	scheduler.Enqueue(seedURL, "", false)

	pageCount := 0
	for pageCount < s.maxPages {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		item, ok := scheduler.Dequeue()
		if !ok {
			return result, nil
		}

		// Fix the level before dispatching the fetch so the counters
		// reflect work done, not work queued.
		level := scheduler.Register(item.URL, item.ParentURL)

		page, err := s.fetcher.Render(ctx, item.URL)
		if err != nil {
			s.logger.Debug("page fetch failed", "url", item.URL, "level", level, "error", err)
			result.Failed = append(result.Failed, model.FetchFailure{
				URL:    item.URL,
				Level:  level,
				Reason: err.Error(),
			})
			if err := s.delay.Wait(ctx); err != nil {
				return result, err
			}
			continue
		}

		page.ParentURL = item.ParentURL
		page.Level = level

		if page.IsHTML() {
			if err := s.extractor.Extract(page); err != nil {
				s.logger.Debug("extraction failed", "url", item.URL, "error", err)
			}
		}
		if !s.extractImages {
			page.Images = nil
		}

		for _, link := range page.Links {
			if !sameHost(seed, link.Href) {
				continue
			}
			scheduler.Enqueue(link.Href, page.URL, link.IsNavigation)
		}

		result.Pages = append(result.Pages, page)
		pageCount++

		s.logger.Debug("page crawled",
			"url", page.URL,
			"level", level,
			"links", len(page.Links),
			"images", len(page.Images),
			"pending", scheduler.Len(),
		)

		if scheduler.Len() > 0 {
			if err := s.delay.Wait(ctx); err != nil {
				return result, err
			}
		}
	}

	result.BudgetExhausted = scheduler.Len() > 0
	return result, nil
}

// sameHost reports whether a URL points at the same host as the seed.
func sameHost(seed *url.URL, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, seed.Host)
}
