package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/siteporter/siteporter/internal/config"
	"github.com/siteporter/siteporter/internal/database"
	"github.com/siteporter/siteporter/internal/log"
	"github.com/siteporter/siteporter/internal/pipeline"
	"github.com/siteporter/siteporter/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website and export its pages and images for migration",
		Long: `Crawl performs a prioritized traversal of a website and exports its content.

The traversal visits legal/compliance pages first (impressum, privacy, terms),
then the seed page, then navigation links level by level. Per-level budgets
bound the crawl, and at the deepest level only a sample per site section is
taken. All referenced images are downloaded exactly once into a
content-addressable mirror with a JSON manifest.

Examples:
  # Crawl a single site
  siteporter crawl https://example.com

  # Crawl multiple sites concurrently
  siteporter crawl https://example.com https://example.org

  # Deeper crawl with a larger page budget
  siteporter crawl -l 4 -p 500 https://example.com

  # Output a Markdown migration report to a file
  siteporter crawl --markdown --report-file report.md https://example.com

  # Use a custom configuration file
  siteporter crawl -c myconfig.yaml https://example.com

Configuration file (.siteporter) example:
  sites:
    example.com:
      headers:
        Authorization: "Bearer token"
      maxPages: 500
      levelLimits:
        3: 1
    example.org:
      maxLevel: 2`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Traversal flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().IntP("max-level", "l", config.DefaultMaxLevel,
		"Deepest traversal level (1 = seed page only)")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Fixed pause after every page fetch and asset transfer")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout for page fetches")

	// Asset flags
	cmd.Flags().Bool("images", true,
		"Download referenced images after the crawl")
	cmd.Flags().Duration("asset-timeout", config.DefaultAssetTimeout,
		"Per-request timeout for asset transfers")
	cmd.Flags().Int64("max-asset-size", config.DefaultMaxAssetSize,
		"Byte ceiling for a single asset download")
	cmd.Flags().StringP("output", "o", "",
		"Root directory for exported assets and manifests (default: XDG data directory)")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawl jobs when multiple seeds are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .siteporter in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with header redaction
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxLevel, err = cmd.Flags().GetInt("max-level")
	if err != nil {
		return nil, err
	}
	// Per-level caps follow the configured depth unless the config file
	// overrides them per site.
	cfg.LevelLimits = config.DefaultLevelLimits(cfg.MaxLevel)

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.DownloadImages, err = cmd.Flags().GetBool("images")
	if err != nil {
		return nil, err
	}

	cfg.AssetTimeout, err = cmd.Flags().GetDuration("asset-timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxAssetSize, err = cmd.Flags().GetInt64("max-asset-size")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(config.XDGDataDir(), "exports")
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// Get positional arguments (seed URLs)
	cfg.Seeds = args

	return cfg, nil
}

// runCrawl executes the crawl for all seeds.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"maxPages", cfg.MaxPages,
		"maxLevel", cfg.MaxLevel,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Each crawl job is internally sequential; concurrency applies across
	// seeds only.
	client := &http.Client{Timeout: cfg.Timeout}

	if len(cfg.Seeds) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, client, db, logger)
	}

	return runSequentialCrawl(ctx, cfg, client, db, logger)
}

// configForSeed resolves the effective configuration for a single seed,
// overlaying the matching site entry from the config file and pointing the
// job at its own output subdirectory (one per host).
func configForSeed(cfg *config.Config, seed string) *config.Config {
	jobCfg := cfg
	host := ""
	if u, err := url.Parse(seed); err == nil {
		host = u.Hostname()
	}

	if cfg.SiteConfigs != nil && host != "" {
		jobCfg = cfg.Apply(cfg.SiteConfigs.GetSiteConfig(host))
	} else {
		clone := *cfg
		jobCfg = &clone
	}

	if host != "" {
		jobCfg.OutputDir = filepath.Join(cfg.OutputDir, host)
	}
	return jobCfg
}

// runSequentialCrawl processes seeds one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.HistoryDB, logger *slog.Logger) error {
	for _, seed := range cfg.Seeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		jobCfg := configForSeed(cfg, seed)
		p := pipeline.DefaultPipeline(client, nil, db,
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		)
		job := pipeline.NewJob(seed, jobCfg)

		fmt.Printf("Crawling %s...\n", seed)
		startTime := time.Now()

		if err := p.Execute(ctx, job); err != nil {
			logger.Error("crawl failed", "seed", seed, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", seed, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, job); err != nil {
			logger.Error("report failed", "seed", seed, "error", err)
		}
	}

	return nil
}

// runBatchCrawl processes multiple seeds concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.HistoryDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d sites (concurrency: %d)...\n\n",
		len(cfg.Seeds), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(client, nil, db,
				pipeline.WithLogger(logger),
				pipeline.WithContinueOnError(true),
			)
		},
		func(seed string) *config.Config {
			return configForSeed(cfg, seed)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Seeds, func(job *pipeline.Job, index int) {
		mu.Lock()
		defer mu.Unlock()

		if job.Err != nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Crawl error for %s: %v\n", index+1, len(cfg.Seeds), job.Seed, job.Err)
			return
		}

		fmt.Printf("[%d/%d] Crawl completed: %s\n", index+1, len(cfg.Seeds), job.Seed)

		if err := outputReport(cfg, job); err != nil {
			logger.Error("report failed", "seed", job.Seed, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport writes the migration report in the requested format.
func outputReport(cfg *config.Config, job *pipeline.Job) error {
	if job.Result == nil {
		return nil
	}

	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with owner-only permissions;
		// reports can reveal internal URLs and auth header names.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	summary := report.NewSummary(job.Result, job.Manifest)

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(summary)
	return err
}
