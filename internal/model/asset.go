package model

// AssetRecord is the outcome of one asset download attempt.
// Exactly one record exists per unique source URL within a job; repeated
// requests for the same URL return the cached record.
type AssetRecord struct {
	// SourceURL is the URL the asset was requested from.
	SourceURL string `json:"url"`

	// LocalPath is the filesystem path backing this URL. For duplicate
	// content this is the canonical path of the first file written for
	// the same hash, not a path derived from this URL.
	LocalPath string `json:"localPath,omitempty"`

	// ContentHash is the fast content hash of the downloaded bytes.
	ContentHash string `json:"hash,omitempty"`

	// Duplicate is true when the content hash matched an earlier download.
	// Once set it is never retracted.
	Duplicate bool `json:"duplicate"`

	// OriginalFile is the canonical path of the first file written for
	// this content hash. Only set on duplicates.
	OriginalFile string `json:"originalFile,omitempty"`

	// SizeBytes is the number of bytes received.
	SizeBytes int64 `json:"sizeBytes"`

	// Failed is true when the download did not complete.
	Failed bool `json:"failed,omitempty"`

	// FailReason describes why the download failed (size exceeded,
	// timeout, HTTP status, malformed URL).
	FailReason string `json:"failReason,omitempty"`

	// EXIF holds image metadata extracted from the downloaded bytes.
	// Nil when the asset carries no EXIF data or is not an image.
	EXIF *EXIFInfo `json:"exif,omitempty"`
}

// EXIFInfo is a small extract of EXIF metadata recorded for downloaded
// images. Publishing pipelines use it to audit or strip metadata before
// re-hosting the assets.
type EXIFInfo struct {
	// CameraMake is the camera manufacturer (EXIF Make tag).
	CameraMake string `json:"camera_make,omitempty"`

	// CameraModel is the camera model (EXIF Model tag).
	CameraModel string `json:"camera_model,omitempty"`

	// Timestamp is the original capture time (DateTimeOriginal), as written.
	Timestamp string `json:"timestamp,omitempty"`

	// HasGPS is true when the image carries GPS coordinates.
	HasGPS bool `json:"has_gps,omitempty"`
}
