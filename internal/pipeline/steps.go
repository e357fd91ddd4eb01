package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/siteporter/siteporter/internal/assets"
	"github.com/siteporter/siteporter/internal/crawler"
	"github.com/siteporter/siteporter/internal/database"
	"github.com/siteporter/siteporter/internal/model"
	"github.com/siteporter/siteporter/internal/report"
)

// CrawlStep performs the site traversal.
// It builds the scheduler and spider from the job configuration and stores
// the crawl result on the job.
//
// Design decision: The step constructs a fresh scheduler per job rather
// than sharing one because level registrations and category samples are
// per-site state that must not leak between seeds.
type CrawlStep struct {
	// client performs the page fetches.
	client *http.Client

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawl step using the given HTTP client.
func NewCrawlStep(client *http.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	cfg := job.Config

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	if len(cfg.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithHeaders(cfg.Headers))
	}
	fetcher := crawler.NewHTTPFetcher(s.client, fetcherOpts...)
	extractor := crawler.NewExtractor(cfg.NavSelectors)
	scheduler := crawler.NewScheduler(cfg.MaxLevel, cfg.LevelLimits, cfg.LegalKeywords)

	spider := crawler.NewSpider(fetcher, extractor,
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithDelay(crawler.FixedDelay{Delay: cfg.Delay}),
		crawler.WithImageExtraction(cfg.DownloadImages),
		crawler.WithLogger(s.logger),
	)

	result, err := spider.Crawl(ctx, scheduler, job.Seed)
	if err != nil {
		return err
	}

	job.Result = result
	s.logger.Info("crawl completed",
		"seed", job.Seed,
		"pages", len(result.Pages),
		"failures", len(result.Failed),
		"budget_exhausted", result.BudgetExhausted,
	)

	return nil
}

// AssetStep downloads the images referenced by the crawled pages into
// content-addressable local storage.
//
// Design decision: Asset downloading runs after the full traversal rather
// than interleaved with it, so the downloader sees the complete
// de-duplicated URL set up front and progress reporting has a stable total.
type AssetStep struct {
	// client performs the asset transfers.
	client *http.Client

	// logger for structured logging.
	logger *slog.Logger

	// onProgress is called after each asset attempt.
	onProgress assets.ProgressFunc
}

// AssetStepOption configures an AssetStep.
type AssetStepOption func(*AssetStep)

// WithAssetLogger sets a custom logger for the asset step.
func WithAssetLogger(logger *slog.Logger) AssetStepOption {
	return func(s *AssetStep) {
		s.logger = logger
	}
}

// WithAssetProgress sets a progress callback for the asset step.
func WithAssetProgress(fn assets.ProgressFunc) AssetStepOption {
	return func(s *AssetStep) {
		s.onProgress = fn
	}
}

// NewAssetStep creates a new asset download step.
func NewAssetStep(client *http.Client, opts ...AssetStepOption) *AssetStep {
	s := &AssetStep{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AssetStep) Name() string {
	return "download_assets"
}

// Do executes the asset download step.
func (s *AssetStep) Do(ctx context.Context, job *Job) error {
	if !job.Config.DownloadImages {
		s.logger.Debug("skipping asset download, disabled by configuration")
		return nil
	}
	if job.Result == nil {
		s.logger.Debug("skipping asset download, no crawl result")
		return nil
	}

	urls := job.Result.ImageURLs()
	if len(urls) == 0 {
		s.logger.Debug("no image URLs referenced by crawled pages")
		return nil
	}

	// The downloader enforces its own per-request timeout (AssetTimeout),
	// so the shared client's page-fetch timeout must not cap transfers:
	// a large image may legitimately take longer than a page fetch.
	assetClient := *s.client
	assetClient.Timeout = 0

	downloader := assets.NewDownloader(&assetClient, filepath.Join(job.OutputDir, "assets"),
		assets.WithMaxAssetSize(job.Config.MaxAssetSize),
		assets.WithAssetTimeout(job.Config.AssetTimeout),
		assets.WithTransferDelay(job.Config.Delay),
		assets.WithDownloaderUserAgent(job.Config.UserAgent),
		assets.WithEXIFInspection(true),
		assets.WithDownloaderLogger(s.logger),
	)

	batch := downloader.DownloadAll(ctx, urls, s.onProgress)

	job.Records = downloader.Records()
	job.Manifest = downloader.Manifest()
	job.Result.ResolveImagePaths(job.Records)

	s.logger.Info("asset download completed",
		"seed", job.Seed,
		"unique", len(batch.Success),
		"duplicates", len(batch.Duplicates),
		"failed", len(batch.Failed),
	)

	return nil
}

// ManifestStep writes the asset manifest to disk.
type ManifestStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// ManifestStepOption configures a ManifestStep.
type ManifestStepOption func(*ManifestStep)

// WithManifestLogger sets a custom logger for the manifest step.
func WithManifestLogger(logger *slog.Logger) ManifestStepOption {
	return func(s *ManifestStep) {
		s.logger = logger
	}
}

// NewManifestStep creates a new manifest writing step.
func NewManifestStep(opts ...ManifestStepOption) *ManifestStep {
	s := &ManifestStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ManifestStep) Name() string {
	return "write_manifest"
}

// Do executes the manifest writing step.
func (s *ManifestStep) Do(_ context.Context, job *Job) error {
	if job.Manifest == nil {
		s.logger.Debug("skipping manifest, no assets downloaded")
		return nil
	}

	path := filepath.Join(job.OutputDir, "manifest.json")
	if err := job.Manifest.WriteFile(path); err != nil {
		return err
	}

	s.logger.Info("manifest written", "path", path)
	return nil
}

// ReportStep emits the job summary through a report writer.
type ReportStep struct {
	// writer receives the finished summary.
	writer report.Writer

	// logger for structured logging.
	logger *slog.Logger
}

// ReportStepOption configures a ReportStep.
type ReportStepOption func(*ReportStep)

// WithReportLogger sets a custom logger for the report step.
func WithReportLogger(logger *slog.Logger) ReportStepOption {
	return func(s *ReportStep) {
		s.logger = logger
	}
}

// NewReportStep creates a new report step writing to the given writer.
func NewReportStep(writer report.Writer, opts ...ReportStepOption) *ReportStep {
	s := &ReportStep{
		writer: writer,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do executes the report step.
func (s *ReportStep) Do(_ context.Context, job *Job) error {
	if job.Result == nil {
		s.logger.Debug("skipping report, no crawl result")
		return nil
	}

	_, err := s.writer.Write(report.NewSummary(job.Result, job.Manifest))
	return err
}

// PersistStep records the finished job in the crawl history database.
//
// Design decision: Persistence is the last step and is typically combined
// with WithContinueOnError, because a locked or corrupt history database
// should never discard a crawl that already wrote its pages and assets.
type PersistStep struct {
	// db is the history database.
	db *database.HistoryDB

	// logger for structured logging.
	logger *slog.Logger
}

// PersistStepOption configures a PersistStep.
type PersistStepOption func(*PersistStep)

// WithPersistLogger sets a custom logger for the persist step.
func WithPersistLogger(logger *slog.Logger) PersistStepOption {
	return func(s *PersistStep) {
		s.logger = logger
	}
}

// NewPersistStep creates a new persistence step writing to the given
// history database.
func NewPersistStep(db *database.HistoryDB, opts ...PersistStepOption) *PersistStep {
	s := &PersistStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persistence step.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if job.Result == nil {
		s.logger.Debug("skipping persistence, no crawl result")
		return nil
	}

	record := &database.JobRecord{
		Seed:            job.Seed,
		StartedAt:       job.Result.StartedAt,
		FinishedAt:      job.Result.FinishedAt,
		PagesCrawled:    len(job.Result.Pages),
		PagesFailed:     len(job.Result.Failed),
		BudgetExhausted: job.Result.BudgetExhausted,
		OutputDir:       job.OutputDir,
	}
	if job.Manifest != nil {
		stats := job.Manifest.Statistics
		record.AssetsTotal = stats.TotalURLs
		record.AssetsUnique = stats.UniqueFiles
		record.AssetsDuplicate = stats.Duplicates
		record.AssetsFailed = stats.Failed
		record.TotalSizeBytes = stats.TotalSizeBytes
	}

	jobID, err := s.db.InsertJob(ctx, record)
	if err != nil {
		return err
	}

	for _, page := range job.Result.Pages {
		if err := s.db.InsertPage(ctx, jobID, page); err != nil {
			return err
		}
	}
	for _, rec := range assetRecords(job) {
		if err := s.db.InsertAsset(ctx, jobID, rec); err != nil {
			return err
		}
	}

	s.logger.Info("job persisted", "job_id", jobID, "seed", job.Seed)
	return nil
}

// assetRecords returns the job's asset records in a stable order.
func assetRecords(job *Job) []*model.AssetRecord {
	if job.Manifest == nil {
		return nil
	}
	records := make([]*model.AssetRecord, 0, len(job.Manifest.Images))
	for _, img := range job.Manifest.Images {
		if rec, ok := job.Records[img.URL]; ok {
			records = append(records, rec)
		}
	}
	return records
}

// DefaultPipeline creates a pipeline with the standard migration steps:
// crawl, download assets, write the manifest, report, and persist.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full migration flow
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent step ordering
//
// The writer and db parameters are optional; passing nil skips the
// corresponding step.
func DefaultPipeline(client *http.Client, writer report.Writer, db *database.HistoryDB, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewCrawlStep(client, WithCrawlLogger(p.logger)),
		NewAssetStep(client, WithAssetLogger(p.logger)),
		NewManifestStep(WithManifestLogger(p.logger)),
	)
	if writer != nil {
		p.AddStep(NewReportStep(writer, WithReportLogger(p.logger)))
	}
	if db != nil {
		p.AddStep(NewPersistStep(db, WithPersistLogger(p.logger)))
	}

	return p
}
