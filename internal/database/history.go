package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/siteporter/siteporter/internal/model"
)

// HistoryDB provides SQLite-based storage for crawl job history.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all crawl jobs rather
// than one file per site. This keeps the `jobs` command a single query and
// simplifies backup/restore operations.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "siteporter.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to forbid creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; keep the pool at a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Jobs store one row per crawl run
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pages_crawled INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		assets_total INTEGER DEFAULT 0,
		assets_unique INTEGER DEFAULT 0,
		assets_duplicate INTEGER DEFAULT 0,
		assets_failed INTEGER DEFAULT 0,
		total_size_bytes INTEGER DEFAULT 0,
		budget_exhausted INTEGER DEFAULT 0,
		output_dir TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_seed ON jobs(seed);
	CREATE INDEX IF NOT EXISTS idx_jobs_started ON jobs(started_at);

	-- Pages store one row per fetched page within a job
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		parent_url TEXT,
		level INTEGER NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		raw_hash TEXT,
		fetched_at DATETIME,
		UNIQUE(job_id, url),
		FOREIGN KEY(job_id) REFERENCES jobs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_job ON pages(job_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_level ON pages(level);

	-- Assets store one row per attempted asset URL within a job
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		local_path TEXT,
		content_hash TEXT,
		size_bytes INTEGER DEFAULT 0,
		duplicate INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		fail_reason TEXT,
		UNIQUE(job_id, url),
		FOREIGN KEY(job_id) REFERENCES jobs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_assets_job ON assets(job_id);
	CREATE INDEX IF NOT EXISTS idx_assets_hash ON assets(content_hash);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// JobRecord represents a stored crawl job.
type JobRecord struct {
	ID              int64
	Seed            string
	StartedAt       time.Time
	FinishedAt      time.Time
	PagesCrawled    int
	PagesFailed     int
	AssetsTotal     int
	AssetsUnique    int
	AssetsDuplicate int
	AssetsFailed    int
	TotalSizeBytes  int64
	BudgetExhausted bool
	OutputDir       string
}

// InsertJob inserts a new job row and returns its ID.
func (hdb *HistoryDB) InsertJob(ctx context.Context, job *JobRecord) (int64, error) {
	query := `
	INSERT INTO jobs (seed, started_at, finished_at, pages_crawled, pages_failed,
		assets_total, assets_unique, assets_duplicate, assets_failed,
		total_size_bytes, budget_exhausted, output_dir)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		job.Seed,
		job.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		job.FinishedAt.UTC().Format("2006-01-02 15:04:05"),
		job.PagesCrawled,
		job.PagesFailed,
		job.AssetsTotal,
		job.AssetsUnique,
		job.AssetsDuplicate,
		job.AssetsFailed,
		job.TotalSizeBytes,
		boolToInt(job.BudgetExhausted),
		job.OutputDir,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert job: %w", err)
	}

	return result.LastInsertId()
}

// ListJobs returns the most recent jobs, newest first. A limit of zero or
// less returns all jobs.
func (hdb *HistoryDB) ListJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	query := `
	SELECT id, seed, started_at, finished_at, pages_crawled, pages_failed,
		assets_total, assets_unique, assets_duplicate, assets_failed,
		total_size_bytes, budget_exhausted, output_dir
	FROM jobs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		var job JobRecord
		var started, finished string
		var exhausted int

		err := rows.Scan(
			&job.ID,
			&job.Seed,
			&started,
			&finished,
			&job.PagesCrawled,
			&job.PagesFailed,
			&job.AssetsTotal,
			&job.AssetsUnique,
			&job.AssetsDuplicate,
			&job.AssetsFailed,
			&job.TotalSizeBytes,
			&exhausted,
			&job.OutputDir,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		job.StartedAt = parseTimestamp(started)
		job.FinishedAt = parseTimestamp(finished)
		job.BudgetExhausted = exhausted != 0
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// GetJob retrieves a job by its ID. Returns nil when no such job exists.
func (hdb *HistoryDB) GetJob(ctx context.Context, id int64) (*JobRecord, error) {
	query := `
	SELECT id, seed, started_at, finished_at, pages_crawled, pages_failed,
		assets_total, assets_unique, assets_duplicate, assets_failed,
		total_size_bytes, budget_exhausted, output_dir
	FROM jobs
	WHERE id = ?
	`

	var job JobRecord
	var started, finished string
	var exhausted int

	err := hdb.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.Seed,
		&started,
		&finished,
		&job.PagesCrawled,
		&job.PagesFailed,
		&job.AssetsTotal,
		&job.AssetsUnique,
		&job.AssetsDuplicate,
		&job.AssetsFailed,
		&job.TotalSizeBytes,
		&exhausted,
		&job.OutputDir,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.StartedAt = parseTimestamp(started)
	job.FinishedAt = parseTimestamp(finished)
	job.BudgetExhausted = exhausted != 0

	return &job, nil
}

// InsertPage inserts or updates a page row for a job.
// Uses UPSERT so re-persisting a job's pages is idempotent.
func (hdb *HistoryDB) InsertPage(ctx context.Context, jobID int64, page *model.Page) error {
	query := `
	INSERT INTO pages (job_id, url, parent_url, level, status_code, content_type, title, raw_hash, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(job_id, url) DO UPDATE SET
		parent_url = excluded.parent_url,
		level = excluded.level,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		raw_hash = excluded.raw_hash,
		fetched_at = excluded.fetched_at
	`

	_, err := hdb.db.ExecContext(ctx, query,
		jobID,
		page.URL,
		page.ParentURL,
		page.Level,
		page.StatusCode,
		page.ContentType,
		page.Title,
		page.Hash,
		page.FetchedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	return nil
}

// ListPages returns all pages recorded for a job, shallowest level first.
func (hdb *HistoryDB) ListPages(ctx context.Context, jobID int64) ([]model.Page, error) {
	query := `
	SELECT url, parent_url, level, status_code, content_type, title, raw_hash, fetched_at
	FROM pages
	WHERE job_id = ?
	ORDER BY level ASC, id ASC
	`

	rows, err := hdb.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		var page model.Page
		var fetched string

		err := rows.Scan(
			&page.URL,
			&page.ParentURL,
			&page.Level,
			&page.StatusCode,
			&page.ContentType,
			&page.Title,
			&page.Hash,
			&fetched,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.FetchedAt = parseTimestamp(fetched)
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// InsertAsset inserts or updates an asset row for a job.
func (hdb *HistoryDB) InsertAsset(ctx context.Context, jobID int64, record *model.AssetRecord) error {
	query := `
	INSERT INTO assets (job_id, url, local_path, content_hash, size_bytes, duplicate, failed, fail_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(job_id, url) DO UPDATE SET
		local_path = excluded.local_path,
		content_hash = excluded.content_hash,
		size_bytes = excluded.size_bytes,
		duplicate = excluded.duplicate,
		failed = excluded.failed,
		fail_reason = excluded.fail_reason
	`

	_, err := hdb.db.ExecContext(ctx, query,
		jobID,
		record.SourceURL,
		record.LocalPath,
		record.ContentHash,
		record.SizeBytes,
		boolToInt(record.Duplicate),
		boolToInt(record.Failed),
		record.FailReason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	return nil
}

// CountAssetsByHash returns how many asset rows reference each content hash
// across all jobs. Useful for spotting assets shared between sites.
func (hdb *HistoryDB) CountAssetsByHash(ctx context.Context, hash string) (int, error) {
	query := `SELECT COUNT(*) FROM assets WHERE content_hash = ?`

	var count int
	if err := hdb.db.QueryRowContext(ctx, query, hash).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}

	return count, nil
}

// HasRecentJob checks if a seed was crawled within the specified duration.
func (hdb *HistoryDB) HasRecentJob(ctx context.Context, seed string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM jobs
	WHERE seed = ? AND started_at > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := hdb.db.QueryRowContext(ctx, query, seed, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent job: %w", err)
	}

	return count > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
