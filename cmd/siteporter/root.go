package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for siteporter.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siteporter",
		Short: "Website migration crawler and asset exporter",
		Long: `siteporter crawls a website for migration and exports its content.

It performs a prioritized breadth-first traversal (legal pages first, then
navigation links) with per-level page budgets, downloads every referenced
image exactly once into a content-addressable mirror, and writes a manifest
plus a migration report.

Crawling is strictly sequential with a fixed delay between requests so the
origin server is never hammered during a migration.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewJobsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
