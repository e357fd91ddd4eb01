package assets

// Registry is the content-addressable index of downloaded assets. It maps
// content hashes to the single canonical file written for that content, and
// source URLs to their hash and resolved path.
//
// Invariant: for every known hash exactly one file is ever written; the
// URL of a duplicate maps to the canonical path of the first download, not
// to a path derived from its own URL.
//
// The registry is plain data with no I/O. It lives for one download job;
// the manifest is the durable artifact written at the end.
//
// Design decision: The three maps are encapsulated behind this struct and
// passed by injection instead of living as package-level state. That keeps
// the one-file-per-hash invariant unit-testable and leaves a single place
// to add locking if the downloader ever grows workers.
type Registry struct {
	// hashToPath maps content hash to the canonical path of the first
	// file written for that hash.
	hashToPath map[string]string

	// urlToHash maps source URL to its content hash.
	urlToHash map[string]string

	// urlToPath maps source URL to the path backing it. For duplicates
	// this is the canonical path, which differs from the path the URL
	// itself would derive.
	urlToPath map[string]string

	// hashOrder records first-seen hash order for deterministic manifests.
	hashOrder []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		hashToPath: make(map[string]string),
		urlToHash:  make(map[string]string),
		urlToPath:  make(map[string]string),
	}
}

// PathForHash returns the canonical path for a content hash, if any
// content with that hash has been stored.
func (r *Registry) PathForHash(hash string) (string, bool) {
	p, ok := r.hashToPath[hash]
	return p, ok
}

// RegisterCanonical records a freshly written file as the canonical
// location for its content hash and binds the source URL to it.
func (r *Registry) RegisterCanonical(sourceURL, hash, localPath string) {
	if _, exists := r.hashToPath[hash]; !exists {
		r.hashToPath[hash] = localPath
		r.hashOrder = append(r.hashOrder, hash)
	}
	r.urlToHash[sourceURL] = hash
	r.urlToPath[sourceURL] = localPath
}

// RegisterDuplicate binds a URL whose content matched an existing hash to
// the canonical path of the original file. It returns that path.
func (r *Registry) RegisterDuplicate(sourceURL, hash string) string {
	canonical := r.hashToPath[hash]
	r.urlToHash[sourceURL] = hash
	r.urlToPath[sourceURL] = canonical
	return canonical
}

// PathForURL returns the path backing a source URL, if recorded.
func (r *Registry) PathForURL(sourceURL string) (string, bool) {
	p, ok := r.urlToPath[sourceURL]
	return p, ok
}

// HashForURL returns the content hash recorded for a source URL.
func (r *Registry) HashForURL(sourceURL string) (string, bool) {
	h, ok := r.urlToHash[sourceURL]
	return h, ok
}

// UniqueFiles returns the number of canonical files written.
func (r *Registry) UniqueFiles() int {
	return len(r.hashToPath)
}

// Hashes returns all content hashes in first-seen order.
func (r *Registry) Hashes() []string {
	out := make([]string, len(r.hashOrder))
	copy(out, r.hashOrder)
	return out
}
