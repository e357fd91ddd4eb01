package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/siteporter/siteporter/internal/config"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *Job) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *Job) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func testJob() *Job {
	return NewJob("https://example.com", config.NewConfig())
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))

		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	t.Run("adds multiple steps with AddSteps", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "step-1"},
			&mockStep{name: "step-2"},
			&mockStep{name: "step-3"},
		)

		if p.StepCount() != 3 {
			t.Errorf("expected 3 steps, got %d", p.StepCount())
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "first"})
		p.AddStep(&mockStep{name: "second"})
		p.AddStep(&mockStep{name: "third"})

		names := p.StepNames()
		want := []string{"first", "second", "third"}
		for i, name := range want {
			if names[i] != name {
				t.Errorf("StepNames()[%d] = %q, want %q", i, names[i], name)
			}
		}
	})
}

// TestPipelineExecute tests pipeline execution behavior.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		step := func(name string) *mockStep {
			return &mockStep{
				name: name,
				doFunc: func(context.Context, *Job) error {
					order = append(order, name)
					return nil
				},
			}
		}

		p := New()
		p.AddSteps(step("a"), step("b"), step("c"))

		job := testJob()
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() = %v", err)
		}

		if len(order) != 3 || order[0] != "a" || order[2] != "c" {
			t.Errorf("execution order = %v", order)
		}
		if len(job.PerformedSteps) != 3 {
			t.Errorf("PerformedSteps = %v", job.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{
			name:   "failing",
			doFunc: func(context.Context, *Job) error { return errors.New("boom") },
		}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		job := testJob()
		if err := p.Execute(context.Background(), job); err == nil {
			t.Fatal("expected error from failing step")
		}
		if after.callCount != 0 {
			t.Error("step after the failure must not run")
		}
		if job.Err == nil {
			t.Error("error not recorded on job")
		}
	})

	t.Run("continues past errors when configured", func(t *testing.T) {
		t.Parallel()

		failing := &mockStep{
			name:   "failing",
			doFunc: func(context.Context, *Job) error { return errors.New("boom") },
		}
		after := &mockStep{name: "after"}

		p := New(WithContinueOnError(true))
		p.AddSteps(failing, after)

		job := testJob()
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() = %v, want nil with continueOnError", err)
		}
		if after.callCount != 1 {
			t.Error("step after the failure should still run")
		}
		if job.Err == nil {
			t.Error("error not recorded on job")
		}
	})

	t.Run("respects context cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		first := &mockStep{
			name: "first",
			doFunc: func(context.Context, *Job) error {
				cancel()
				return nil
			},
		}
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(first, second)

		job := testJob()
		err := p.Execute(ctx, job)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() = %v, want context.Canceled", err)
		}
		if second.callCount != 0 {
			t.Error("step after cancellation must not run")
		}
		if !job.TimedOut {
			t.Error("TimedOut not set on cancelled job")
		}
	})
}
