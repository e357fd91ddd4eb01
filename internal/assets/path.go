package assets

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FallbackDir is the reserved directory for assets whose URL cannot be
// mirrored into a host/path layout.
const FallbackDir = "fallback"

// PathFor derives the deterministic local path for an asset URL:
//
//	{outputRoot}/{hostname}/{url path without leading slash}
//
// Preserving the origin server's own hierarchy keeps asset references
// stable across a later bulk migration: the structure under each hostname
// is a 1:1 mirror of the source, so no lookup table is needed to rewrite
// references. Malformed URLs fall back to a name derived from a hash of
// the URL string under the reserved fallback directory.
func PathFor(assetURL, outputRoot string) string {
	u, err := url.Parse(assetURL)
	if err != nil || u.Host == "" {
		return fallbackPath(assetURL, outputRoot)
	}

	// Clean to keep ../ segments from escaping the output root.
	cleaned := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if cleaned == "" || cleaned == "." {
		cleaned = "index"
	}

	return filepath.Join(outputRoot, u.Hostname(), filepath.FromSlash(cleaned))
}

// fallbackPath names an unmappable asset by a hash of its URL string,
// keeping whatever file extension is recognizable.
func fallbackPath(assetURL, outputRoot string) string {
	name := fmt.Sprintf("%016x", xxhash.Sum64String(assetURL))
	if ext := safeExt(assetURL); ext != "" {
		name += ext
	}
	return filepath.Join(outputRoot, FallbackDir, name)
}

// safeExt extracts a short, plain file extension from a raw URL string.
// Query strings and fragments are stripped first.
func safeExt(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := path.Ext(trimmed)
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
