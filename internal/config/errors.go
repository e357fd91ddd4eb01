package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic handling while still providing human-readable messages.
var (
	// ErrNoSeed is returned when no seed URL is specified.
	ErrNoSeed = errors.New("no seed specified: provide one or more root URLs as arguments")

	// ErrInvalidMaxPages is returned when the page budget is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxLevel is returned when the maximum level is below 1.
	// The seed page is always level 1, so a smaller value crawls nothing.
	ErrInvalidMaxLevel = errors.New("invalid max level: must be at least 1")

	// ErrInvalidDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxAssetSize is returned when the asset size ceiling is
	// not positive.
	ErrInvalidMaxAssetSize = errors.New("invalid max asset size: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLevelLimits is returned when a level limit entry is out of
	// range. Limits must be -1 (unlimited) or a positive count, for levels
	// between 0 and the configured maximum.
	ErrInvalidLevelLimits = errors.New("invalid level limits: limits must be -1 or positive, for levels within max level")
)
