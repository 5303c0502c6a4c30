package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// TimeoutDecorator bounds each run by RunOptions.Timeout. A run that does not
// settle in time is abandoned: the inner runner is disposed (force-killed when
// it does not comply within the dispose grace period), replaced by a fresh
// one, and the run resolves to a Timeout result.
type TimeoutDecorator struct {
	factory Factory
	opts    options

	mu    sync.Mutex
	inner TestRunner
}

type runOutcome struct {
	result m.RunResult
	err    error
}

// NewTimeoutDecorator returns a decorator over runners built by factory.
func NewTimeoutDecorator(factory Factory, opts ...Option) *TimeoutDecorator {
	return &TimeoutDecorator{factory: factory, opts: buildOptions(opts)}
}

// Init creates and initializes the inner runner.
func (t *TimeoutDecorator) Init(ctx context.Context) error {
	inner := t.factory()

	t.mu.Lock()
	t.inner = inner
	t.mu.Unlock()

	return inner.Init(ctx)
}

// Run runs on the inner runner, racing it against options.Timeout. A zero
// timeout disables the bound.
func (t *TimeoutDecorator) Run(ctx context.Context, options RunOptions) (m.RunResult, error) {
	inner := t.current()
	if inner == nil {
		return m.RunResult{}, ErrNotInitialized
	}

	if options.Timeout <= 0 {
		return inner.Run(ctx, options)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan runOutcome, 1)

	go func() {
		result, err := inner.Run(runCtx, options)
		done <- runOutcome{result: result, err: err}
	}()

	timer := time.NewTimer(options.Timeout)
	defer timer.Stop()

	select {
	case outcome := <-done:
		return outcome.result, outcome.err
	case <-timer.C:
		slog.Warn("Test run timed out, restarting test runner", "timeout", options.Timeout)

		if err := t.restart(ctx, inner); err != nil {
			slog.Error("Failed to restart test runner after timeout", "error", err)
		}

		return m.RunResult{Status: m.RunTimeout}, nil
	case <-ctx.Done():
		return m.RunResult{}, ctx.Err()
	}
}

// Dispose disposes the inner runner.
func (t *TimeoutDecorator) Dispose(ctx context.Context) error {
	inner := t.current()
	if inner == nil {
		return nil
	}

	return inner.Dispose(ctx)
}

// Kill forwards to the inner runner when it supports killing.
func (t *TimeoutDecorator) Kill() error {
	if killer, ok := t.current().(Killer); ok {
		return killer.Kill()
	}

	return nil
}

func (t *TimeoutDecorator) restart(ctx context.Context, old TestRunner) error {
	disposeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.maxWaitForDispose)
	defer cancel()

	if err := old.Dispose(disposeCtx); err != nil && !isGone(err) {
		slog.Warn("Test runner did not dispose cleanly", "error", err)
	}

	if killer, ok := old.(Killer); ok {
		if err := killer.Kill(); err != nil {
			slog.Error("Failed to kill timed out test runner", "error", err)
		}
	}

	inner := t.factory()

	t.mu.Lock()
	t.inner = inner
	t.mu.Unlock()

	t.opts.onRestart(RestartReasonTimeout)

	return inner.Init(ctx)
}

func (t *TimeoutDecorator) current() TestRunner {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.inner
}
