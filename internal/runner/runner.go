// Package runner provides the test runner contract and the resilience layers
// stacked around a test runner living in a subprocess.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/protocol"
)

// RunOptions parameterize a single test run.
type RunOptions = protocol.RunOptions

// TestRunner is implemented by the process adapter and by every decorator,
// so they can be nested freely.
type TestRunner interface {
	Init(ctx context.Context) error
	Run(ctx context.Context, options RunOptions) (m.RunResult, error)
	Dispose(ctx context.Context) error
}

// Killer is implemented by runners that can forcibly stop what they host.
type Killer interface {
	Kill() error
}

// Factory creates a fresh, uninitialized TestRunner.
type Factory func() TestRunner

var (
	// ErrProcessCrashed is matched by every error caused by the test runner
	// subprocess disappearing while a call was pending.
	ErrProcessCrashed = errors.New("test runner process crashed")
	// ErrRunnerDisposed is returned by calls made after Dispose.
	ErrRunnerDisposed = errors.New("test runner disposed")
	// ErrCallInFlight is returned when a second init/run is issued while one is pending.
	ErrCallInFlight = errors.New("test runner call already in flight")
	// ErrNotInitialized is returned by Run before a successful Init.
	ErrNotInitialized = errors.New("test runner not initialized")
)

// ProcessCrashedError describes a subprocess that went away unexpectedly.
type ProcessCrashedError struct {
	PID      int
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessCrashedError) Error() string {
	msg := fmt.Sprintf("test runner process %d crashed (exit code %d)", e.PID, e.ExitCode)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}

	return msg
}

// Is makes errors.Is(err, ErrProcessCrashed) hold.
func (e *ProcessCrashedError) Is(target error) bool {
	return target == ErrProcessCrashed
}

// Unwrap returns the underlying channel or wait error.
func (e *ProcessCrashedError) Unwrap() error {
	return e.Cause
}

// Option configures the resilience decorators.
type Option func(*options)

type options struct {
	maxRetries        int
	maxWaitForDispose time.Duration
	onRestart         func(reason string)
}

const (
	// DefaultMaxRetries is how often a crashed run is re-issued.
	DefaultMaxRetries = 2
	// DefaultMaxWaitForDispose bounds a graceful dispose before force-killing.
	DefaultMaxWaitForDispose = 2 * time.Second
)

// Restart reasons passed to the restart hook.
const (
	RestartReasonCrash   = "crash"
	RestartReasonTimeout = "timeout"
)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithMaxWaitForDispose overrides DefaultMaxWaitForDispose.
func WithMaxWaitForDispose(d time.Duration) Option {
	return func(o *options) {
		o.maxWaitForDispose = d
	}
}

// WithRestartHook registers fn to be called whenever a decorator replaces its
// inner runner.
func WithRestartHook(fn func(reason string)) Option {
	return func(o *options) {
		o.onRestart = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{
		maxRetries:        DefaultMaxRetries,
		maxWaitForDispose: DefaultMaxWaitForDispose,
		onRestart:         func(string) {},
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.onRestart == nil {
		o.onRestart = func(string) {}
	}

	return o
}

// NewResilientRunner stacks the decorators around runners built by factory:
// the retry layer wraps the raw runner and the timeout layer wraps the retry
// layer, so a hang is caught before a crash-retry loop could itself hang.
func NewResilientRunner(factory Factory, opts ...Option) TestRunner {
	return NewTimeoutDecorator(func() TestRunner {
		return NewRetryDecorator(factory, opts...)
	}, opts...)
}
