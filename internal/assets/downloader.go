package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/siteporter/siteporter/internal/model"
)

// Downloader fetches assets into content-addressable local storage.
// Identical bytes are written to disk exactly once no matter how many URLs
// reference them; every additional URL resolves to the canonical file of
// the first download.
//
// The downloader is strictly sequential: one transfer in flight, a fixed
// delay between transfers. Per-URL results are cached for the life of the
// job, so repeated fetches of the same URL never hit the network twice.
type Downloader struct {
	// client performs the transfers.
	client *http.Client

	// registry deduplicates content by hash.
	registry *Registry

	// outputRoot is the base directory for the mirrored host/path layout.
	outputRoot string

	// maxSize is the byte ceiling per asset, checked against the declared
	// Content-Length before streaming and against received bytes during.
	maxSize int64

	// timeout bounds each individual transfer.
	timeout time.Duration

	// delay is the fixed pause between transfers in DownloadAll.
	delay time.Duration

	// userAgent is sent with every request.
	userAgent string

	// inspectEXIF enables metadata extraction from stored images.
	inspectEXIF bool

	// logger receives per-asset progress at debug level.
	logger *slog.Logger

	// records caches the outcome per source URL, including failures.
	records map[string]*model.AssetRecord

	// order preserves first-attempt order for deterministic manifests.
	order []string
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithMaxAssetSize sets the per-asset byte ceiling.
func WithMaxAssetSize(size int64) DownloaderOption {
	return func(d *Downloader) {
		d.maxSize = size
	}
}

// WithAssetTimeout sets the per-transfer timeout.
func WithAssetTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.timeout = timeout
	}
}

// WithTransferDelay sets the fixed pause between transfers.
func WithTransferDelay(delay time.Duration) DownloaderOption {
	return func(d *Downloader) {
		d.delay = delay
	}
}

// WithDownloaderUserAgent sets a custom User-Agent header.
func WithDownloaderUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) {
		d.userAgent = ua
	}
}

// WithEXIFInspection enables EXIF metadata extraction for stored images.
func WithEXIFInspection(enabled bool) DownloaderOption {
	return func(d *Downloader) {
		d.inspectEXIF = enabled
	}
}

// WithDownloaderLogger sets the logger for transfer progress.
func WithDownloaderLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader creates a Downloader writing under outputRoot.
func NewDownloader(client *http.Client, outputRoot string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:     client,
		registry:   NewRegistry(),
		outputRoot: outputRoot,
		maxSize:    10 * 1024 * 1024,
		timeout:    30 * time.Second,
		delay:      100 * time.Millisecond,
		userAgent:  "siteporter/1.0",
		records:    make(map[string]*model.AssetRecord),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	return d
}

// Registry exposes the content index, mainly for manifest generation and
// tests.
func (d *Downloader) Registry() *Registry {
	return d.registry
}

// Records returns the per-URL outcome map.
func (d *Downloader) Records() map[string]*model.AssetRecord {
	return d.records
}

// Fetch downloads one asset. The first call per URL does the network work;
// every later call returns the cached record, success or failure alike.
// A URL whose bytes match a previously stored hash is marked duplicate and
// resolved to the canonical file; nothing is written for it.
func (d *Downloader) Fetch(ctx context.Context, assetURL string) *model.AssetRecord {
	if record, ok := d.records[assetURL]; ok {
		return record
	}

	record := &model.AssetRecord{SourceURL: assetURL}
	d.records[assetURL] = record
	d.order = append(d.order, assetURL)

	data, err := d.transfer(ctx, assetURL)
	if err != nil {
		record.Failed = true
		record.FailReason = failReason(err)
		d.logger.Debug("asset fetch failed", "url", assetURL, "reason", record.FailReason)
		return record
	}

	record.SizeBytes = int64(len(data))
	record.ContentHash = strconv.FormatUint(xxhash.Sum64(data), 16)

	if canonical, ok := d.registry.PathForHash(record.ContentHash); ok {
		// Same bytes seen before: discard the transfer, point at the
		// original file.
		record.Duplicate = true
		record.OriginalFile = canonical
		record.LocalPath = canonical
		d.registry.RegisterDuplicate(assetURL, record.ContentHash)
		d.logger.Debug("duplicate content", "url", assetURL, "canonical", canonical)
		return record
	}

	localPath := PathFor(assetURL, d.outputRoot)
	if err := writeAsset(localPath, data); err != nil {
		record.Failed = true
		record.FailReason = fmt.Sprintf("write failed: %v", err)
		return record
	}

	record.LocalPath = localPath
	d.registry.RegisterCanonical(assetURL, record.ContentHash, localPath)

	if d.inspectEXIF {
		record.EXIF = InspectEXIF(data)
	}

	d.logger.Debug("asset stored", "url", assetURL, "path", localPath, "bytes", record.SizeBytes)
	return record
}

// BatchResult aggregates the outcome of a DownloadAll run.
type BatchResult struct {
	// Success holds records for freshly written canonical files.
	Success []*model.AssetRecord

	// Duplicates holds records whose content matched an earlier download.
	Duplicates []*model.AssetRecord

	// Failed holds records for URLs that could not be downloaded.
	Failed []*model.AssetRecord
}

// ProgressFunc is called after each asset attempt with the running count.
type ProgressFunc func(done, total int, record *model.AssetRecord)

// DownloadAll fetches the given URLs sequentially with the configured
// inter-request delay. Input URLs are deduplicated first, so a URL
// referenced by many pages is attempted once. One failure never aborts the
// batch; the result covers every unique input URL exactly once.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, onProgress ProgressFunc) *BatchResult {
	unique := dedupe(urls)
	result := &BatchResult{}

	for i, assetURL := range unique {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		record := d.Fetch(ctx, assetURL)
		switch {
		case record.Failed:
			result.Failed = append(result.Failed, record)
		case record.Duplicate:
			result.Duplicates = append(result.Duplicates, record)
		default:
			result.Success = append(result.Success, record)
		}

		if onProgress != nil {
			onProgress(i+1, len(unique), record)
		}

		if d.delay > 0 && i < len(unique)-1 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(d.delay):
			}
		}
	}

	return result
}

// transfer performs the HTTP GET with both size checks applied.
func (d *Downloader) transfer(ctx context.Context, assetURL string) ([]byte, error) {
	u, err := url.Parse(assetURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrMalformedURL
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ErrMalformedURL
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrAssetStatus, resp.StatusCode)
	}

	// Fast rejection on the declared length; servers may omit or lie, so
	// the received bytes are checked again below.
	if resp.ContentLength > d.maxSize {
		return nil, ErrSizeExceeded
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxSize {
		return nil, ErrSizeExceeded
	}

	return data, nil
}

// writeAsset persists bytes to the derived path, creating parents.
func writeAsset(localPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0750); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0600)
}

// failReason maps transfer errors to the short manifest vocabulary.
func failReason(err error) string {
	switch {
	case errors.Is(err, ErrSizeExceeded):
		return "size exceeded"
	case errors.Is(err, ErrMalformedURL):
		return "malformed URL"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrAssetStatus):
		return err.Error()
	default:
		// Transport-level failures keep their message but are trimmed of
		// the wrapped prefix noise.
		return strings.TrimSpace(err.Error())
	}
}

// dedupe removes duplicate URLs preserving first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
