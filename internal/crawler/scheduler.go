package crawler

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// LegalLevel is the reserved traversal level for legal/compliance pages.
// Pages at this level are always admitted and drained before everything else,
// because a migration must never lose imprint, privacy, or terms pages.
const LegalLevel = 0

// SeedLevel is the traversal level of pages discovered without a parent.
const SeedLevel = 1

// UnlimitedQuota marks a level without a visit cap.
const UnlimitedQuota = -1

// WorkItem is one pending URL in the frontier.
type WorkItem struct {
	// URL is the absolute, normalized URL to visit.
	URL string

	// ParentURL is the page the URL was discovered on. Empty for the seed.
	ParentURL string

	// Level is the traversal level computed at discovery time. The level
	// becomes final when the URL is registered.
	Level int

	// IsNavigation marks URLs discovered through navigation anchors.
	IsNavigation bool
}

// Scheduler owns the URL frontier. It classifies discovered URLs into
// traversal levels, enforces admission policy (level caps and per-category
// sampling at the deepest level), and hands back pending URLs in priority
// order.
//
// All state lives behind this struct and is mutated only by its methods.
// The scheduler is not safe for concurrent use: the crawl loop is strictly
// sequential, so no locking is needed. A concurrent caller must put the
// scheduler behind its own mutex or owning goroutine to preserve the
// one-level-per-URL invariant.
type Scheduler struct {
	// maxLevel is the deepest level crawled. Legal pages bypass it.
	maxLevel int

	// levelLimits maps level to its visit cap (UnlimitedQuota = none).
	// At maxLevel the cap applies per category rather than in total.
	levelLimits map[int]int

	// legalKeywords mark URLs as legal pages by substring match.
	legalKeywords []string

	// levels holds the registered level per normalized URL.
	// First write wins; re-discovery through another parent never
	// reclassifies.
	levels map[string]int

	// levelCounts counts registered URLs per level. Monotonically
	// increasing for the life of a crawl.
	levelCounts map[int]int

	// categories maps category key to the URLs admitted at maxLevel.
	// Invariant: len(categories[c]) never exceeds levelLimits[maxLevel].
	categories map[string][]string

	// admitted counts URLs accepted into the frontier per level. Finite
	// caps at non-deepest levels are enforced against admissions rather
	// than registrations, so a burst of links discovered in one extraction
	// pass cannot overshoot the cap before any of them is visited.
	admitted map[int]int

	// seen tracks every URL already admitted into the frontier, so a URL
	// reachable from many pages is enqueued once.
	seen map[string]bool

	// queue holds pending work items. Re-sorted before every dequeue so
	// a freshly discovered legal page jumps ahead of queued links.
	queue []WorkItem
}

// NewScheduler creates a Scheduler for one crawl job.
// levelLimits may be nil, in which case every level is unlimited.
func NewScheduler(maxLevel int, levelLimits map[int]int, legalKeywords []string) *Scheduler {
	keywords := make([]string, len(legalKeywords))
	for i, kw := range legalKeywords {
		keywords[i] = strings.ToLower(kw)
	}

	return &Scheduler{
		maxLevel:      maxLevel,
		levelLimits:   levelLimits,
		legalKeywords: keywords,
		levels:        make(map[string]int),
		levelCounts:   make(map[int]int),
		categories:    make(map[string][]string),
		admitted:      make(map[int]int),
		seen:          make(map[string]bool),
		queue:         make([]WorkItem, 0),
	}
}

// ClassifyLevel assigns a traversal level to a URL.
//
// Rules, in priority order:
//  1. URLs matching a legal keyword are LegalLevel, regardless of parent.
//  2. URLs without a parent are SeedLevel.
//  3. Otherwise the parent's registered level plus one. A parent that was
//     never registered counts as the seed, since links are only extracted
//     from visited pages.
func (s *Scheduler) ClassifyLevel(rawURL, parentURL string) int {
	if s.isLegalPage(rawURL) {
		return LegalLevel
	}
	if parentURL == "" {
		return SeedLevel
	}

	parentLevel := SeedLevel
	if normalized, err := normalizeURL(parentURL); err == nil {
		if level, ok := s.levels[normalized]; ok {
			parentLevel = level
		}
	}
	return parentLevel + 1
}

// Admit reports whether a URL passes admission policy. It does not mutate
// frontier state; Enqueue is the mutating entry point.
//
// Legal pages are always admitted. URLs deeper than maxLevel are rejected.
// Levels with an unlimited quota admit everything. At the deepest level a
// URL is admitted only while its category (first two non-empty path
// segments) has fewer than the configured cap of admitted members.
// Malformed URLs are rejected; this is a silent, non-fatal skip.
func (s *Scheduler) Admit(rawURL, parentURL string) bool {
	if _, err := normalizeURL(rawURL); err != nil {
		return false
	}

	level := s.ClassifyLevel(rawURL, parentURL)
	if level == LegalLevel {
		return true
	}
	if level > s.maxLevel {
		return false
	}

	limit := s.levelLimit(level)
	if limit == UnlimitedQuota {
		return true
	}

	if level == s.maxLevel {
		return len(s.categories[CategoryKey(rawURL)]) < limit
	}

	// Non-deepest finite caps count admissions, not registrations: the
	// slot is reserved when the URL enters the frontier.
	return s.admitted[level] < limit
}

// Enqueue admits a discovered URL into the frontier. It returns true when
// the URL was accepted, false when it was a duplicate or rejected by
// admission policy.
func (s *Scheduler) Enqueue(rawURL, parentURL string, isNavigation bool) bool {
	normalized, err := normalizeURL(rawURL)
	if err != nil {
		return false
	}
	if s.seen[normalized] {
		return false
	}
	if !s.Admit(rawURL, parentURL) {
		return false
	}

	level := s.ClassifyLevel(rawURL, parentURL)
	if level != LegalLevel && s.levelLimit(level) != UnlimitedQuota {
		if level == s.maxLevel {
			key := CategoryKey(rawURL)
			s.categories[key] = append(s.categories[key], normalized)
		} else {
			s.admitted[level]++
		}
	}

	s.seen[normalized] = true
	s.queue = append(s.queue, WorkItem{
		URL:          normalized,
		ParentURL:    parentURL,
		Level:        level,
		IsNavigation: isNavigation,
	})
	return true
}

// Register fixes the level of a URL and counts the visit. It must be called
// exactly once per URL actually visited, immediately before the fetch, so
// level counts reflect work done rather than work queued.
//
// Registration is idempotent: a URL already registered keeps its level
// (first write wins) and is not counted again.
func (s *Scheduler) Register(rawURL, parentURL string) int {
	normalized, err := normalizeURL(rawURL)
	if err != nil {
		normalized = rawURL
	}

	if level, ok := s.levels[normalized]; ok {
		return level
	}

	level := s.ClassifyLevel(rawURL, parentURL)
	s.levels[normalized] = level
	s.levelCounts[level]++
	return level
}

// Dequeue removes and returns the highest-priority pending item. The
// frontier is re-sorted on every call, so priorities reflect everything
// discovered so far. Returns false when the frontier is empty.
func (s *Scheduler) Dequeue() (WorkItem, bool) {
	if len(s.queue) == 0 {
		return WorkItem{}, false
	}

	s.prioritize()
	item := s.queue[0]
	s.queue = s.queue[1:]
	return item, true
}

// prioritize orders the frontier by the crawl priority key, ascending:
// legal pages first, then shallower levels, then navigation links before
// content-body links. The sort is stable so equal-priority items keep
// their discovery order.
func (s *Scheduler) prioritize() {
	sort.SliceStable(s.queue, func(i, j int) bool {
		a, b := priorityKey(s.queue[i]), priorityKey(s.queue[j])
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
}

// priorityKey computes the sort key (legal flag, level, nav flag).
func priorityKey(item WorkItem) [3]int {
	key := [3]int{1, item.Level, 1}
	if item.Level == LegalLevel {
		key[0] = 0
	}
	if item.IsNavigation {
		key[2] = 0
	}
	return key
}

// Len returns the number of pending items in the frontier.
func (s *Scheduler) Len() int {
	return len(s.queue)
}

// LevelCounts returns a copy of the per-level visit counters.
func (s *Scheduler) LevelCounts() map[int]int {
	counts := make(map[int]int, len(s.levelCounts))
	for level, count := range s.levelCounts {
		counts[level] = count
	}
	return counts
}

// levelLimit returns the visit cap for a level, UnlimitedQuota when no
// entry exists.
func (s *Scheduler) levelLimit(level int) int {
	if s.levelLimits == nil {
		return UnlimitedQuota
	}
	if limit, ok := s.levelLimits[level]; ok {
		return limit
	}
	return UnlimitedQuota
}

// isLegalPage reports whether a URL matches any configured legal keyword.
// Matching is a case-insensitive substring check over the whole URL string,
// so "Impressum" in a path, hostname, or query all count.
func (s *Scheduler) isLegalPage(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, keyword := range s.legalKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// CategoryKey derives the sampling category of a URL: the first two
// non-empty path segments joined by a slash. URLs with fewer segments use
// what they have; the root page maps to the empty category.
func CategoryKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := make([]string, 0, 2)
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == 2 {
			break
		}
	}
	return strings.Join(segments, "/")
}

// normalizeURL canonicalizes a URL for frontier deduplication: lowercase
// scheme and host, fragment removed, default port dropped, and the empty
// path normalized to "/" so http://example.com and http://example.com/
// are the same page.
func normalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &url.Error{Op: "normalize", URL: rawURL, Err: errNotAbsolute}
	}

	normalized := purell.NormalizeURL(u, purell.FlagsSafe|purell.FlagRemoveFragment)

	// purell leaves the empty root path alone.
	if parsed, err := url.Parse(normalized); err == nil && parsed.Path == "" {
		parsed.Path = "/"
		normalized = parsed.String()
	}
	return normalized, nil
}
