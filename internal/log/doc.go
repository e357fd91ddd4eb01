// Package log provides URL-aware logging utilities for siteporter.
//
// The crawler logs page and asset URLs on nearly every operation. URLs on
// real sites can carry credentials: userinfo components, signed CDN query
// parameters, session tokens. RedactHandler wraps any slog.Handler and
// masks those parts before the record reaches the underlying handler, so
// log files are safe to share in migration handovers.
//
// Usage:
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
