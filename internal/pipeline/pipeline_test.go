package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/pkgstats/pkgstats/internal/model"
)

// recordStep is a test step that records its execution and optionally fails.
type recordStep struct {
	name string
	err  error
	log  *[]string
}

func (s *recordStep) Name() string { return s.name }

func (s *recordStep) Do(_ context.Context, _ *Run) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

func newTestRun() *Run {
	return NewRun(model.NewReport(model.Architecture("amd64"),
		"http://mirror.example/debian", "stable", "main"))
}

// TestPipelineExecute tests step ordering and error handling.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes steps in order", func(t *testing.T) {
		t.Parallel()

		var log []string
		p := New()
		p.AddSteps(
			&recordStep{name: "first", log: &log},
			&recordStep{name: "second", log: &log},
			&recordStep{name: "third", log: &log},
		)

		if err := p.Execute(context.Background(), newTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"first", "second", "third"}
		if len(log) != len(want) {
			t.Fatalf("executed %d steps, want %d", len(log), len(want))
		}
		for i, name := range want {
			if log[i] != name {
				t.Errorf("step %d = %q, want %q", i, log[i], name)
			}
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		var log []string
		stepErr := errors.New("download failed")
		p := New()
		p.AddSteps(
			&recordStep{name: "first", log: &log, err: stepErr},
			&recordStep{name: "second", log: &log},
		)

		run := newTestRun()
		if err := p.Execute(context.Background(), run); !errors.Is(err, stepErr) {
			t.Fatalf("expected step error, got %v", err)
		}
		if len(log) != 1 {
			t.Errorf("executed %d steps, want 1", len(log))
		}
		if run.Report.ErrorMessage != stepErr.Error() {
			t.Errorf("ErrorMessage = %q, want %q", run.Report.ErrorMessage, stepErr.Error())
		}
	})

	t.Run("continues past errors when configured", func(t *testing.T) {
		t.Parallel()

		var log []string
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&recordStep{name: "first", log: &log, err: errors.New("transient")},
			&recordStep{name: "second", log: &log},
		)

		run := newTestRun()
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(log) != 2 {
			t.Errorf("executed %d steps, want 2", len(log))
		}
		if run.Report.ErrorMessage == "" {
			t.Error("expected error recorded in report")
		}
	})

	t.Run("cancellation marks the run as timed out", func(t *testing.T) {
		t.Parallel()

		var log []string
		p := New()
		p.AddStep(&recordStep{name: "never", log: &log})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run := newTestRun()
		if err := p.Execute(ctx, run); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !run.Report.TimedOut {
			t.Error("expected TimedOut to be set")
		}
		if len(log) != 0 {
			t.Errorf("executed %d steps, want 0", len(log))
		}
	})
}

// TestPipelineStepNames tests step introspection.
func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	var log []string
	p := New()
	p.AddSteps(
		&recordStep{name: "fetch", log: &log},
		&recordStep{name: "count", log: &log},
	)

	if got := p.StepCount(); got != 2 {
		t.Errorf("StepCount = %d, want 2", got)
	}
	names := p.StepNames()
	if len(names) != 2 || names[0] != "fetch" || names[1] != "count" {
		t.Errorf("StepNames = %v, want [fetch count]", names)
	}
}

// TestRunClose tests that closing a run without a manifest is a no-op.
func TestRunClose(t *testing.T) {
	t.Parallel()

	run := newTestRun()
	if err := run.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := run.Close(); err != nil {
		t.Errorf("unexpected error on second close: %v", err)
	}
}
