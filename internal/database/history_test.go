package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/siteporter/siteporter/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "siteporter.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")

		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected 'database not found' error, got %q", err.Error())
		}

		// The directory must not be created as a side effect.
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()
	})
}

// TestJobOperations tests job insertion and retrieval.
func TestJobOperations(t *testing.T) {
	t.Parallel()

	t.Run("insert and get job", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		job := &JobRecord{
			Seed:            "https://example.com",
			StartedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			FinishedAt:      time.Date(2026, 8, 1, 12, 5, 0, 0, time.UTC),
			PagesCrawled:    42,
			PagesFailed:     3,
			AssetsTotal:     100,
			AssetsUnique:    80,
			AssetsDuplicate: 15,
			AssetsFailed:    5,
			TotalSizeBytes:  1 << 20,
			BudgetExhausted: true,
			OutputDir:       "/tmp/out",
		}

		id, err := db.InsertJob(ctx, job)
		if err != nil {
			t.Fatalf("InsertJob() = %v", err)
		}
		if id <= 0 {
			t.Fatalf("InsertJob() id = %d, want positive", id)
		}

		got, err := db.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("GetJob() = %v", err)
		}
		if got == nil {
			t.Fatal("GetJob() returned nil for existing job")
		}
		if got.Seed != job.Seed {
			t.Errorf("Seed = %q, want %q", got.Seed, job.Seed)
		}
		if got.PagesCrawled != 42 || got.PagesFailed != 3 {
			t.Errorf("page counts = %d/%d, want 42/3", got.PagesCrawled, got.PagesFailed)
		}
		if !got.BudgetExhausted {
			t.Error("BudgetExhausted not round-tripped")
		}
		if got.StartedAt.IsZero() {
			t.Error("StartedAt not parsed")
		}
	})

	t.Run("missing job returns nil without error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		got, err := db.GetJob(context.Background(), 9999)
		if err != nil {
			t.Fatalf("GetJob() = %v", err)
		}
		if got != nil {
			t.Errorf("GetJob() = %+v, want nil", got)
		}
	})

	t.Run("list jobs newest first with limit", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			_, err := db.InsertJob(ctx, &JobRecord{
				Seed:      "https://example.com",
				StartedAt: base.Add(time.Duration(i) * time.Hour),
			})
			if err != nil {
				t.Fatalf("InsertJob() = %v", err)
			}
		}

		jobs, err := db.ListJobs(ctx, 2)
		if err != nil {
			t.Fatalf("ListJobs() = %v", err)
		}
		if len(jobs) != 2 {
			t.Fatalf("ListJobs() returned %d jobs, want 2", len(jobs))
		}
		if !jobs[0].StartedAt.After(jobs[1].StartedAt) {
			t.Error("jobs not ordered newest first")
		}

		all, err := db.ListJobs(ctx, 0)
		if err != nil {
			t.Fatalf("ListJobs(0) = %v", err)
		}
		if len(all) != 3 {
			t.Errorf("ListJobs(0) returned %d jobs, want 3", len(all))
		}
	})
}

// TestPageOperations tests page persistence per job.
func TestPageOperations(t *testing.T) {
	t.Parallel()

	t.Run("insert is idempotent per job and URL", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		jobID, err := db.InsertJob(ctx, &JobRecord{Seed: "https://example.com", StartedAt: time.Now()})
		if err != nil {
			t.Fatalf("InsertJob() = %v", err)
		}

		page := &model.Page{
			URL:         "https://example.com/about",
			ParentURL:   "https://example.com/",
			Level:       2,
			StatusCode:  200,
			ContentType: "text/html",
			Title:       "About",
			Hash:        "abc123",
			FetchedAt:   time.Now(),
		}

		if err := db.InsertPage(ctx, jobID, page); err != nil {
			t.Fatalf("InsertPage() = %v", err)
		}

		page.Title = "About Us"
		if err := db.InsertPage(ctx, jobID, page); err != nil {
			t.Fatalf("second InsertPage() = %v", err)
		}

		pages, err := db.ListPages(ctx, jobID)
		if err != nil {
			t.Fatalf("ListPages() = %v", err)
		}
		if len(pages) != 1 {
			t.Fatalf("ListPages() returned %d pages, want 1 after upsert", len(pages))
		}
		if pages[0].Title != "About Us" {
			t.Errorf("Title = %q, want updated value", pages[0].Title)
		}
	})

	t.Run("pages are listed shallowest level first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		jobID, err := db.InsertJob(ctx, &JobRecord{Seed: "https://example.com", StartedAt: time.Now()})
		if err != nil {
			t.Fatalf("InsertJob() = %v", err)
		}

		for _, p := range []model.Page{
			{URL: "https://example.com/deep", Level: 3, FetchedAt: time.Now()},
			{URL: "https://example.com/impressum", Level: 0, FetchedAt: time.Now()},
			{URL: "https://example.com/", Level: 1, FetchedAt: time.Now()},
		} {
			if err := db.InsertPage(ctx, jobID, &p); err != nil {
				t.Fatalf("InsertPage() = %v", err)
			}
		}

		pages, err := db.ListPages(ctx, jobID)
		if err != nil {
			t.Fatalf("ListPages() = %v", err)
		}
		if len(pages) != 3 {
			t.Fatalf("ListPages() returned %d pages, want 3", len(pages))
		}
		for i := 1; i < len(pages); i++ {
			if pages[i].Level < pages[i-1].Level {
				t.Errorf("pages out of level order: %d before %d", pages[i-1].Level, pages[i].Level)
			}
		}
	})
}

// TestAssetOperations tests asset persistence per job.
func TestAssetOperations(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	jobID, err := db.InsertJob(ctx, &JobRecord{Seed: "https://example.com", StartedAt: time.Now()})
	if err != nil {
		t.Fatalf("InsertJob() = %v", err)
	}

	records := []*model.AssetRecord{
		{SourceURL: "https://example.com/a.png", LocalPath: "/out/a.png", ContentHash: "h1", SizeBytes: 100},
		{SourceURL: "https://example.com/b.png", LocalPath: "/out/a.png", ContentHash: "h1", Duplicate: true},
		{SourceURL: "https://example.com/c.png", Failed: true, FailReason: "size exceeded"},
	}
	for _, r := range records {
		if err := db.InsertAsset(ctx, jobID, r); err != nil {
			t.Fatalf("InsertAsset(%s) = %v", r.SourceURL, err)
		}
	}

	count, err := db.CountAssetsByHash(ctx, "h1")
	if err != nil {
		t.Fatalf("CountAssetsByHash() = %v", err)
	}
	if count != 2 {
		t.Errorf("CountAssetsByHash(h1) = %d, want 2", count)
	}
}

// TestHasRecentJob tests the recent-job lookup used for re-crawl warnings.
func TestHasRecentJob(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.InsertJob(ctx, &JobRecord{
		Seed:      "https://example.com",
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("InsertJob() = %v", err)
	}

	recent, err := db.HasRecentJob(ctx, "https://example.com", time.Hour)
	if err != nil {
		t.Fatalf("HasRecentJob() = %v", err)
	}
	if !recent {
		t.Error("expected a job inserted now to count as recent")
	}

	recent, err = db.HasRecentJob(ctx, "https://other.example", time.Hour)
	if err != nil {
		t.Fatalf("HasRecentJob() = %v", err)
	}
	if recent {
		t.Error("unknown seed must not report a recent job")
	}
}
