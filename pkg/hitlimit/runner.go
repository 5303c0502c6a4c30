package hitlimit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
)

// Test is a test executed in the runner's own process.
type Test struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Runner executes in-process tests under a Guard. It satisfies the test
// runner contract so it can stand in for a subprocess runner.
type Runner struct {
	guard *Guard
	tests []Test
}

// NewRunner returns a Runner executing tests with guard armed per run.
func NewRunner(guard *Guard, tests []Test) *Runner {
	return &Runner{guard: guard, tests: tests}
}

// Init is a no-op.
func (r *Runner) Init(context.Context) error {
	return nil
}

// Dispose leaves the guard inert.
func (r *Runner) Dispose(context.Context) error {
	r.guard.Deactivate()
	return nil
}

// Run executes the selected tests. Reaching the hit limit aborts the run with
// a Timeout result naming the limit.
func (r *Runner) Run(ctx context.Context, options protocol.RunOptions) (m.RunResult, error) {
	r.guard.Activate(options.HitLimit)
	defer r.guard.Deactivate()

	result := m.RunResult{Status: m.RunComplete}

	for _, test := range r.tests {
		if len(options.TestFilter) > 0 && !slices.Contains(options.TestFilter, test.Name) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return m.RunResult{}, err
		}

		testResult, limitErr := r.runTest(ctx, test)
		if limitErr != nil {
			slog.Debug("Hit limit reached", "test", test.Name, "hits", limitErr.Hits, "limit", limitErr.Limit)

			return m.RunResult{Status: m.RunTimeout, ErrorMessages: []string{limitErr.Error()}}, nil
		}

		result.Tests = append(result.Tests, testResult)
	}

	return result, nil
}

func (r *Runner) runTest(ctx context.Context, test Test) (result m.TestResult, limitErr *LimitError) {
	started := time.Now()
	result = m.TestResult{Name: test.Name, Status: m.TestSuccess}

	defer func() {
		result.TimeSpentMs = time.Since(started).Milliseconds()

		rec := recover()
		if rec == nil {
			return
		}

		if err, ok := Recover(rec); ok {
			limitErr = err
			return
		}

		result.Status = m.TestFailed
		result.FailureMessages = []string{fmt.Sprintf("panic: %v", rec)}
	}()

	if err := test.Fn(ctx); err != nil {
		result.Status = m.TestFailed
		result.FailureMessages = []string{err.Error()}
	}

	return result, nil
}
