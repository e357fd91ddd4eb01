package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/siteporter/siteporter/internal/config"
	"github.com/siteporter/siteporter/internal/database"
	"github.com/spf13/cobra"
)

// NewJobsCmd creates the jobs command.
func NewJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List past crawl jobs from the history database",
		Long: `Jobs lists crawl jobs recorded in the local history database.

Every crawl is persisted automatically, so this command shows what was
migrated, when, and how much content each run produced.

Examples:
  # Show the 20 most recent jobs
  siteporter jobs

  # Show the 5 most recent jobs
  siteporter jobs -n 5

  # Show all jobs
  siteporter jobs -n 0`,
		RunE: runJobsCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of jobs to list (0 = all)")

	return cmd
}

// runJobsCmd executes the jobs command.
func runJobsCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	dbDir := config.XDGDataDir()
	if _, err := os.Stat(filepath.Join(dbDir, "siteporter.db")); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history found. Run `siteporter crawl <url>` first.")
		return nil
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: false})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	jobs, err := db.ListJobs(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history found. Run `siteporter crawl <url>` first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEED\tSTARTED\tPAGES\tASSETS\tSIZE\tSTATUS")
	for _, job := range jobs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			job.ID,
			job.Seed,
			job.StartedAt.Local().Format(time.DateTime),
			job.PagesCrawled,
			job.AssetsUnique,
			humanBytes(job.TotalSizeBytes),
			jobStatus(job),
		)
	}
	return w.Flush()
}

// jobStatus summarizes a job in one word for the listing.
func jobStatus(job database.JobRecord) string {
	switch {
	case job.BudgetExhausted:
		return "partial"
	case job.PagesFailed > 0:
		return "with-errors"
	default:
		return "complete"
	}
}

// humanBytes formats a byte count using binary units.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
