package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/siteporter/siteporter/internal/model"
)

// Fetcher is the page-rendering boundary. The core crawl loop only depends
// on this interface; a headless-browser renderer for script-heavy sites can
// be plugged in without touching the scheduler or orchestrator.
//
// Render must be side-effect free and idempotent per URL. The crawl loop
// never retries a failed render; a failure is terminal for that URL.
type Fetcher interface {
	// Render retrieves a page and returns it with status, content type,
	// and decoded body populated. Extraction of links and images happens
	// separately.
	Render(ctx context.Context, pageURL string) (*model.Page, error)
}

// HTTPFetcher renders pages with a plain HTTP GET. It handles request
// headers, response size limits, and charset-aware decoding, but performs
// no script execution.
type HTTPFetcher struct {
	// client performs the requests. Timeouts are configured on the client.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps how many response bytes are read.
	maxBodySize int64

	// headers are extra headers sent with every request, e.g. per-site
	// auth headers from the config file.
	headers map[string]string
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithHeaders sets extra request headers sent with every page fetch.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// NewHTTPFetcher creates an HTTPFetcher using the given client.
//
// Design decision: We require an external client rather than building one
// because the caller owns timeout and transport policy, and tests can pass
// a client pointed at an httptest server.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   "siteporter/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Render fetches a page over HTTP. Non-2xx responses are a hard failure
// for the URL; the body is decoded to UTF-8 according to the response
// charset before being stored on the page.
func (f *HTTPFetcher) Render(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, pageURL)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := f.readBody(resp.Body, contentType)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", pageURL, err)
	}

	// Legacy servers under migration sometimes omit the Content-Type
	// header; sniff the body so HTML pages still get link extraction.
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: mediaType,
		Raw:         body,
		FetchedAt:   time.Now(),
	}
	page.TruncateRaw()
	page.ComputeHash()

	return page, nil
}

// readBody reads the response body up to maxBodySize, converting HTML and
// XML payloads to UTF-8 based on the declared or sniffed charset. Sites
// under migration are frequently legacy sites serving ISO-8859-1.
func (f *HTTPFetcher) readBody(body io.Reader, contentType string) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	if strings.Contains(contentType, "html") || strings.Contains(contentType, "xml") {
		decoder, err := charset.NewReader(bytes.NewReader(raw), contentType)
		if err == nil {
			if decoded, err := io.ReadAll(decoder); err == nil {
				return decoded, nil
			}
		}
		// Keep the raw bytes when the charset is unknown or undecodable.
	}

	return raw, nil
}
