package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are tuned for polite crawling of a single production site
// during a content migration; most can be overridden via CLI flags or the
// .siteporter configuration file.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "siteporter"

	// DefaultMaxPages is the page budget per crawl job. It bounds the
	// total number of pages fetched regardless of how many URLs the
	// frontier discovers.
	DefaultMaxPages = 100

	// DefaultMaxLevel is the deepest traversal level crawled. Level 1 is
	// the seed page; the reserved level 0 is used for legal/compliance
	// pages and is always admitted.
	DefaultMaxLevel = 3

	// DefaultDelay is the fixed pause inserted after every page fetch and
	// every asset transfer. This is deliberate, non-adaptive rate limiting:
	// the crawl is strictly sequential, so the delay alone controls the
	// request rate against the origin server.
	DefaultDelay = 500 * time.Millisecond

	// DefaultTimeout is the per-request timeout for page fetches.
	DefaultTimeout = 30 * time.Second

	// DefaultAssetTimeout is the per-request timeout for asset transfers.
	DefaultAssetTimeout = 30 * time.Second

	// DefaultMaxAssetSize is the byte ceiling for a single asset.
	// Checked against the declared Content-Length before streaming and
	// against bytes actually received during streaming.
	DefaultMaxAssetSize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxBodySize limits the size of page response bodies.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultBatchSize is the number of concurrent crawl jobs when
	// multiple seed URLs are given. Each job is internally sequential.
	DefaultBatchSize = 4

	// DefaultUserAgent identifies siteporter in HTTP requests so site
	// operators can recognize migration traffic in their logs.
	DefaultUserAgent = "siteporter/1.0 (+https://github.com/siteporter/siteporter)"

	// UnlimitedLevelQuota marks a level with no per-level visit cap.
	UnlimitedLevelQuota = -1
)

// DefaultLegalKeywords are case-insensitive substrings that mark a URL as a
// legal/compliance page. Such pages are classified at the reserved level 0
// and always admitted, because migrations must not lose imprint, privacy,
// or terms pages.
func DefaultLegalKeywords() []string {
	return []string{"impressum", "privacy", "datenschutz", "terms", "agb", "legal", "cookie-policy"}
}

// DefaultNavSelectors are the CSS selectors treated as navigation context.
// Anchors found under any of these count as navigation links, which the
// scheduler prefers over in-body links at the same level.
func DefaultNavSelectors() []string {
	return []string{"nav a", "header a", ".navbar a", ".nav a", ".menu a"}
}

// DefaultLevelLimits returns the per-level visit caps. A limit of
// UnlimitedLevelQuota means the level has no cap; the deepest level
// defaults to a strict one-page-per-category sample.
func DefaultLevelLimits(maxLevel int) map[int]int {
	limits := make(map[int]int, maxLevel+1)
	limits[0] = UnlimitedLevelQuota
	for level := 1; level < maxLevel; level++ {
		limits[level] = UnlimitedLevelQuota
	}
	if maxLevel >= 1 {
		limits[maxLevel] = 1
	}
	return limits
}

// Config holds all configuration options for siteporter.
// It is populated from CLI flags plus the optional .siteporter file and
// passed through the application by injection rather than global state.
type Config struct {
	// Seeds is the list of root URLs to crawl. Each seed is an
	// independent crawl job with its own frontier and budget.
	Seeds []string

	// MaxPages is the page budget per crawl job.
	MaxPages int

	// MaxLevel is the deepest traversal level crawled.
	MaxLevel int

	// LevelLimits maps traversal level to its visit cap.
	// UnlimitedLevelQuota (-1) means no cap. At the deepest level the cap
	// is applied per category (first two URL path segments).
	LevelLimits map[int]int

	// LegalKeywords are case-insensitive substrings marking legal pages.
	LegalKeywords []string

	// NavSelectors are CSS selectors whose anchors count as navigation.
	NavSelectors []string

	// Headers are custom HTTP headers sent with every page fetch.
	Headers map[string]string

	// Delay is the fixed pause after every fetch and asset transfer.
	Delay time.Duration

	// Timeout is the per-request timeout for page fetches.
	Timeout time.Duration

	// AssetTimeout is the per-request timeout for asset transfers.
	AssetTimeout time.Duration

	// MaxAssetSize is the byte ceiling for a single asset download.
	MaxAssetSize int64

	// MaxBodySize limits the size of page response bodies.
	MaxBodySize int64

	// DownloadImages enables the asset download phase after the crawl.
	DownloadImages bool

	// OutputDir is the root directory for downloaded assets and the
	// manifest. Defaults to the XDG data directory when empty.
	OutputDir string

	// UserAgent is the User-Agent header for all requests.
	UserAgent string

	// BatchSize is the number of concurrent crawl jobs for multiple seeds.
	BatchSize int

	// Verbose enables debug-level logging.
	Verbose bool

	// JSONReport selects JSON report output (mutually exclusive with
	// MarkdownReport). The default is a human-readable text summary.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit path to the .siteporter file.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// SaveToDB persists crawl results to the history database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite history database.
	DBDir string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		MaxPages:      DefaultMaxPages,
		MaxLevel:      DefaultMaxLevel,
		LevelLimits:   DefaultLevelLimits(DefaultMaxLevel),
		LegalKeywords: DefaultLegalKeywords(),
		NavSelectors:  DefaultNavSelectors(),
		Delay:         DefaultDelay,
		Timeout:       DefaultTimeout,
		AssetTimeout:  DefaultAssetTimeout,
		MaxAssetSize:  DefaultMaxAssetSize,
		MaxBodySize:   DefaultMaxBodySize,
		UserAgent:     DefaultUserAgent,
		BatchSize:     DefaultBatchSize,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxLevel < 1 {
		return ErrInvalidMaxLevel
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Timeout <= 0 || c.AssetTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAssetSize <= 0 {
		return ErrInvalidMaxAssetSize
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	for level, limit := range c.LevelLimits {
		if level < 0 || level > c.MaxLevel {
			return ErrInvalidLevelLimits
		}
		if limit < UnlimitedLevelQuota || limit == 0 {
			return ErrInvalidLevelLimits
		}
	}
	return nil
}

// LevelLimit returns the visit cap for a level. Levels without an explicit
// entry are unlimited.
func (c *Config) LevelLimit(level int) int {
	if limit, ok := c.LevelLimits[level]; ok {
		return limit
	}
	return UnlimitedLevelQuota
}

// XDGDataDir returns the default data directory for siteporter
// (~/.local/share/siteporter on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
