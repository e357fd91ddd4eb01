package model

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// MaxPageSize is the maximum size of raw page content to keep in memory.
// Larger pages are truncated to this size before hashing and extraction.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page represents a crawled web page with its extracted structure.
//
// Design decision: We store the extracted links and images on the page
// rather than returning them separately from the extractor because:
//  1. Export adapters consume pages as self-contained records
//  2. The image slice is updated in place with local paths once the
//     asset downloader has run
//  3. It keeps the crawl result serializable as a single document
type Page struct {
	// URL is the absolute, normalized URL of the page.
	URL string `json:"url"`

	// ParentURL is the URL of the page this one was discovered from.
	// Empty for the seed page.
	ParentURL string `json:"parent_url,omitempty"`

	// Level is the traversal depth assigned by the scheduler.
	// The seed is level 1; legal/compliance pages are the reserved level 0.
	Level int `json:"level"`

	// Title is the page title, whitespace-normalized. Empty for non-HTML.
	Title string `json:"title,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response, without parameters.
	ContentType string `json:"content_type"`

	// Links contains all anchors extracted from the page.
	Links []Link `json:"links,omitempty"`

	// Images contains all img elements extracted from the page.
	// LocalPath on each entry is filled in after asset download.
	Images []Image `json:"images,omitempty"`

	// FetchedAt is the time the page was retrieved.
	FetchedAt time.Time `json:"fetched_at"`

	// Hash is the fast content hash of the raw bytes, used for change
	// detection between crawl jobs. It is not collision resistant.
	Hash string `json:"hash,omitempty"`

	// Raw contains the decoded response body. Excluded from JSON output
	// to keep crawl results small.
	Raw []byte `json:"-"`
}

// ComputeHash calculates and sets the content hash of the page's raw bytes.
// Call after setting Raw.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}
	p.Hash = strconv.FormatUint(xxhash.Sum64(p.Raw), 16)
}

// TruncateRaw enforces the MaxPageSize limit on the raw content.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxPageSize {
		p.Raw = p.Raw[:MaxPageSize]
	}
}

// IsHTML reports whether the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	return p.ContentType == "text/html" || p.ContentType == "application/xhtml+xml"
}

// Link represents an extracted anchor element.
type Link struct {
	// Href is the absolute URL the anchor points at, resolved against
	// the page URL.
	Href string `json:"href"`

	// Text is the whitespace-normalized inner text of the anchor.
	Text string `json:"text,omitempty"`

	// IsNavigation marks anchors found under navigation selectors
	// (nav, header, configured menu selectors).
	IsNavigation bool `json:"is_navigation,omitempty"`

	// IsFooter marks anchors found inside a footer element.
	IsFooter bool `json:"is_footer,omitempty"`
}

// Image represents an extracted img element.
type Image struct {
	// Source is the absolute URL of the image, resolved against the page URL.
	Source string `json:"source"`

	// Alt is the alt attribute, whitespace-normalized.
	Alt string `json:"alt,omitempty"`

	// Title is the title attribute, whitespace-normalized.
	Title string `json:"title,omitempty"`

	// Width and Height are the attribute values as written in the markup.
	// They are kept as strings because pages use percentages and "auto".
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`

	// LocalPath is the path of the downloaded file, set once the asset
	// downloader has resolved this source URL. For duplicate content it
	// points at the canonical file of the first download.
	LocalPath string `json:"local_path,omitempty"`
}
