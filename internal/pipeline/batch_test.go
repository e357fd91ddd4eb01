package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/siteporter/siteporter/internal/config"
)

var errBoom = errors.New("boom")

// countingStep records how many times it ran across all pipelines.
type countingStep struct {
	count atomic.Int64
}

func (s *countingStep) Do(_ context.Context, job *Job) error {
	s.count.Add(1)
	return nil
}

func (s *countingStep) Name() string { return "counting" }

func batchConfigFor(string) *config.Config {
	return config.NewConfig()
}

// TestBatchProcessor tests concurrent multi-site processing.
func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("processes all seeds and keeps order", func(t *testing.T) {
		t.Parallel()

		step := &countingStep{}
		factory := func() *Pipeline {
			p := New()
			p.AddStep(step)
			return p
		}

		bp := NewBatchProcessor(factory, batchConfigFor, WithConcurrency(2))

		seeds := []string{
			"https://a.example",
			"https://b.example",
			"https://c.example",
		}
		jobs, err := bp.ProcessBatch(context.Background(), seeds)
		if err != nil {
			t.Fatalf("ProcessBatch() = %v", err)
		}

		if len(jobs) != len(seeds) {
			t.Fatalf("got %d jobs, want %d", len(jobs), len(seeds))
		}
		for i, job := range jobs {
			if job == nil {
				t.Fatalf("job %d is nil", i)
			}
			if job.Seed != seeds[i] {
				t.Errorf("job %d seed = %q, want %q", i, job.Seed, seeds[i])
			}
		}
		if got := step.count.Load(); got != int64(len(seeds)) {
			t.Errorf("step ran %d times, want %d", got, len(seeds))
		}
	})

	t.Run("one failing seed does not stop the batch", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "maybe-fail",
				doFunc: func(_ context.Context, job *Job) error {
					if job.Seed == "https://bad.example" {
						return errBoom
					}
					return nil
				},
			})
			return p
		}

		bp := NewBatchProcessor(factory, batchConfigFor)

		jobs, err := bp.ProcessBatch(context.Background(), []string{
			"https://good.example",
			"https://bad.example",
			"https://also-good.example",
		})
		if err != nil {
			t.Fatalf("ProcessBatch() = %v", err)
		}

		if jobs[1].Err == nil {
			t.Error("failing seed's job should carry the error")
		}
		if jobs[0].Err != nil || jobs[2].Err != nil {
			t.Error("healthy seeds must not carry errors")
		}
	})

	t.Run("callback receives every job", func(t *testing.T) {
		t.Parallel()

		factory := func() *Pipeline { return New() }
		bp := NewBatchProcessor(factory, batchConfigFor, WithConcurrency(3))

		var mu sync.Mutex
		seen := make(map[int]string)

		seeds := []string{"https://a.example", "https://b.example"}
		err := bp.ProcessBatchWithCallback(context.Background(), seeds, func(job *Job, index int) {
			mu.Lock()
			seen[index] = job.Seed
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("ProcessBatchWithCallback() = %v", err)
		}

		if len(seen) != len(seeds) {
			t.Fatalf("callback ran %d times, want %d", len(seen), len(seeds))
		}
		for i, seed := range seeds {
			if seen[i] != seed {
				t.Errorf("callback index %d seed = %q, want %q", i, seen[i], seed)
			}
		}
	})
}
