package domain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/sandbox"
)

// Orchestrator tests a single mutant inside a sandbox and classifies the
// outcome.
type Orchestrator interface {
	TestMutant(ctx context.Context, sb sandbox.Sandbox, mutant m.TestableMutant) m.MutantResult
}

type orchestrator struct {
	now func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator() Orchestrator {
	return &orchestrator{now: time.Now}
}

// TestMutant never fails: internal errors become an Error result for this
// mutant only.
func (o *orchestrator) TestMutant(ctx context.Context, sb sandbox.Sandbox, mutant m.TestableMutant) m.MutantResult {
	if mutant.Scope.Empty() {
		return m.NewMutantResult(mutant.Mutant, m.NoCoverage)
	}

	started := o.now()
	run, err := sb.RunMutant(ctx, mutant)
	elapsed := o.now().Sub(started)

	var result m.MutantResult

	if err != nil {
		slog.Error("Failed to run mutant", "mutant", mutant.ID, "sandbox", sb.ID(), "error", err)

		result = m.NewMutantResult(mutant.Mutant, m.Error)
		result.StatusReason = err.Error()
	} else {
		result = Classify(mutant.Mutant, run)
	}

	result.TimeSpentMs = elapsed.Milliseconds()

	slog.Debug("Mutant tested", "mutant", mutant.ID, "status", result.Status, "elapsed", elapsed)

	return result
}

// Classify maps the run of a mutant onto its terminal status.
func Classify(mutant m.Mutant, run m.RunResult) m.MutantResult {
	switch run.Status {
	case m.RunError:
		result := m.NewMutantResult(mutant, m.Error)
		result.StatusReason = strings.Join(run.ErrorMessages, "\n")

		return result
	case m.RunTimeout:
		result := m.NewMutantResult(mutant, m.TimedOut)
		result.TestsRan = run.RanTestNames()
		result.StatusReason = strings.Join(run.ErrorMessages, "\n")

		if result.StatusReason == "" {
			result.StatusReason = "timed out"
		}

		return result
	case m.RunComplete:
	}

	failed := run.FailedTests()
	if len(failed) == 0 {
		result := m.NewMutantResult(mutant, m.Survived)
		result.TestsRan = run.RanTestNames()

		return result
	}

	killer := failed[0]

	result := m.NewMutantResult(mutant, m.Killed)
	result.TestsRan = run.RanTestNames()
	result.StatusReason = killer.Name
	result.FailureMessage = strings.Join(killer.FailureMessages, "\n")

	return result
}
