// Package assets implements content-addressable asset storage for crawled
// sites.
//
// # Layout
//
// Downloaded files mirror the origin server's hierarchy under the output
// root: {root}/{hostname}/{url path}. The mirrored structure keeps asset
// references stable across a later bulk migration to a CDN or media
// library without a path lookup table. URLs that cannot be mirrored land
// in a reserved fallback directory under a hash-derived name.
//
// # Deduplication
//
// Dedup happens at two layers. URL-level: the downloader caches one
// outcome per source URL, so a logo referenced by every page is fetched
// once. Content-level: every complete transfer is hashed and checked
// against the Registry; bytes whose hash was seen before are discarded and
// the URL resolves to the canonical file of the first download. N URLs
// with identical bytes produce exactly one file on disk.
//
// The content hash is xxhash64: fast, and deliberately not collision
// resistant. At the scale of a site migration (hundreds of images) the
// collision risk is accepted; switching to a cryptographic hash would be a
// policy change, not a bug fix.
//
// # Politeness and limits
//
// Transfers run one at a time with a fixed delay in between. Each asset is
// size-checked twice: against the declared Content-Length before streaming
// and against the bytes actually received, protecting against servers that
// omit or understate the header. Oversized and failed transfers keep no
// partial data.
package assets
