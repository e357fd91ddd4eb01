package assets

import "errors"

var (
	// ErrSizeExceeded is returned when an asset's declared or actual size
	// is over the configured ceiling. The in-flight transfer is aborted
	// and no partial data is kept.
	ErrSizeExceeded = errors.New("asset exceeds maximum size")

	// ErrAssetStatus is returned when the origin answers a non-2xx status.
	ErrAssetStatus = errors.New("unexpected HTTP status")

	// ErrMalformedURL is returned when the asset URL cannot be requested.
	ErrMalformedURL = errors.New("malformed asset URL")
)
