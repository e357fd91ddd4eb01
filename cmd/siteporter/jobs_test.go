package main

import (
	"testing"

	"github.com/siteporter/siteporter/internal/database"
)

// TestNewJobsCmd tests the jobs command creation.
func TestNewJobsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewJobsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "jobs" {
			t.Errorf("expected use 'jobs', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has limit flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default '20', got %q", flag.DefValue)
		}
	})
}

// TestJobStatus tests the one-word job status summary.
func TestJobStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		job  database.JobRecord
		want string
	}{
		{"complete job", database.JobRecord{}, "complete"},
		{"partial when budget exhausted", database.JobRecord{BudgetExhausted: true}, "partial"},
		{"with errors when pages failed", database.JobRecord{PagesFailed: 2}, "with-errors"},
		{"budget exhaustion wins over errors", database.JobRecord{BudgetExhausted: true, PagesFailed: 2}, "partial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := jobStatus(tt.job); got != tt.want {
				t.Errorf("jobStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHumanBytes tests byte count formatting.
func TestHumanBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{3 * 1024 * 1024, "3.0 MiB"},
		{int64(5.5 * 1024 * 1024 * 1024), "5.5 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := humanBytes(tt.n); got != tt.want {
				t.Errorf("humanBytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}
