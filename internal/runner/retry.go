package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// RetryDecorator replaces a crashed inner runner with a fresh one and
// re-issues the run. Once the retries are used up the run resolves to an
// Error result instead of failing.
type RetryDecorator struct {
	factory Factory
	opts    options

	mu       sync.Mutex
	inner    TestRunner
	disposed bool
}

// NewRetryDecorator returns a decorator over runners built by factory.
func NewRetryDecorator(factory Factory, opts ...Option) *RetryDecorator {
	return &RetryDecorator{factory: factory, opts: buildOptions(opts)}
}

// Init creates and initializes the first inner runner.
func (r *RetryDecorator) Init(ctx context.Context) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrRunnerDisposed
	}

	inner := r.factory()
	r.inner = inner
	r.mu.Unlock()

	return inner.Init(ctx)
}

// Run runs on the inner runner, recovering from up to maxRetries crashes.
// A replacement runner that cannot be initialized ends the retries, and the
// run resolves to an Error result.
func (r *RetryDecorator) Run(ctx context.Context, options RunOptions) (m.RunResult, error) {
	var (
		lastErr error
		crashes int
	)

	for attempt := 0; attempt <= r.opts.maxRetries; attempt++ {
		inner, err := r.current()
		if err != nil {
			return m.RunResult{}, err
		}

		result, err := inner.Run(ctx, options)
		if err == nil {
			return result, nil
		}

		if !errors.Is(err, ErrProcessCrashed) || r.isDisposed() {
			return m.RunResult{}, err
		}

		crashes++
		lastErr = err
		slog.Warn("Test runner crashed, starting a new one", "attempt", attempt+1, "error", err)

		if err := r.recover(ctx); err != nil {
			if errors.Is(err, ErrRunnerDisposed) {
				return m.RunResult{}, err
			}

			lastErr = err

			if !errors.Is(err, ErrProcessCrashed) {
				slog.Error("Failed to restart crashed test runner", "attempt", attempt+1, "error", err)
				break
			}
		}
	}

	slog.Error("Test runner kept crashing, giving up on run", "crashes", crashes, "error", lastErr)

	return m.RunResult{
		Status:        m.RunError,
		ErrorMessages: []string{fmt.Sprintf("test runner crashed %d times: %v", crashes, lastErr)},
	}, nil
}

// Dispose disposes the inner runner. A runner that is already gone is not an error.
func (r *RetryDecorator) Dispose(ctx context.Context) error {
	r.mu.Lock()
	r.disposed = true
	inner := r.inner
	r.mu.Unlock()

	if inner == nil {
		return nil
	}

	if err := inner.Dispose(ctx); err != nil && !isGone(err) {
		return err
	}

	return nil
}

// Kill forwards to the inner runner when it supports killing.
func (r *RetryDecorator) Kill() error {
	r.mu.Lock()
	r.disposed = true
	inner := r.inner
	r.mu.Unlock()

	if killer, ok := inner.(Killer); ok {
		return killer.Kill()
	}

	return nil
}

func (r *RetryDecorator) recover(ctx context.Context) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return ErrRunnerDisposed
	}

	old := r.inner
	inner := r.factory()
	r.inner = inner
	r.mu.Unlock()

	if old != nil {
		if err := old.Dispose(ctx); err != nil && !isGone(err) {
			slog.Debug("Failed to dispose crashed test runner", "error", err)
		}
	}

	r.opts.onRestart(RestartReasonCrash)

	return inner.Init(ctx)
}

func (r *RetryDecorator) current() (TestRunner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return nil, ErrRunnerDisposed
	}

	if r.inner == nil {
		return nil, ErrNotInitialized
	}

	return r.inner, nil
}

func (r *RetryDecorator) isDisposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.disposed
}

func isGone(err error) bool {
	return errors.Is(err, ErrProcessCrashed) || errors.Is(err, ErrRunnerDisposed)
}
