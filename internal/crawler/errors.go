package crawler

import "errors"

var (
	// errNotAbsolute is returned when a URL lacks a scheme or host and
	// therefore cannot enter the frontier.
	errNotAbsolute = errors.New("url is not absolute")

	// ErrHTTPStatus is returned when a page fetch answers with a non-2xx
	// status. The status code is included in the wrapping error.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)
