package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"gooze.dev/pkg/mutexec/internal/metrics"
	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/runner"
	"gooze.dev/pkg/mutexec/internal/sandbox"
)

// DefaultInitialTimeout bounds the baseline run.
const DefaultInitialTimeout = 5 * time.Minute

// ErrBaselineFailed is returned when the unmutated project does not pass.
var ErrBaselineFailed = errors.New("initial test run failed")

// ResultSink receives results while mutants are being tested. Calls are
// serialized.
type ResultSink interface {
	OnMutantTested(result m.MutantResult)
	OnAllMutantsTested(results []m.MutantResult)
}

// Coordinator owns a pool of sandboxes and schedules mutants over them.
type Coordinator interface {
	// PoolSize is the number of sandboxes RunMutants will use at most.
	PoolSize() int
	InitialRun(ctx context.Context) (m.RunResult, error)
	RunMutants(ctx context.Context, mutants []m.TestableMutant, sink ResultSink) ([]m.MutantResult, error)
}

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	// Concurrency is the pool size. Zero means one sandbox per CPU core.
	Concurrency    int
	InitialTimeout time.Duration
	NewSandbox     func() sandbox.Sandbox
	Orchestrator   Orchestrator
	Metrics        *metrics.Metrics
}

type coordinator struct {
	config CoordinatorConfig
	size   int
}

// NewCoordinator builds a Coordinator. The pool size is fixed for its
// lifetime.
func NewCoordinator(config CoordinatorConfig) Coordinator {
	if config.InitialTimeout <= 0 {
		config.InitialTimeout = DefaultInitialTimeout
	}

	if config.Orchestrator == nil {
		config.Orchestrator = NewOrchestrator()
	}

	size := config.Concurrency
	if size <= 0 {
		size = cpuCount()
	}

	return &coordinator{config: config, size: size}
}

func cpuCount() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		slog.Debug("Falling back to runtime CPU count", "error", err)
		return runtime.NumCPU()
	}

	return count
}

func (c *coordinator) PoolSize() int {
	return c.size
}

// InitialRun runs the whole suite with coverage in a dedicated sandbox.
func (c *coordinator) InitialRun(ctx context.Context) (result m.RunResult, err error) {
	sb := c.config.NewSandbox()

	if err := sb.Initialize(ctx); err != nil {
		slog.Error("Failed to initialize baseline sandbox", "error", err)
		return m.RunResult{}, fmt.Errorf("failed to initialize baseline sandbox: %w", err)
	}

	defer func() {
		if disposeErr := sb.Dispose(context.WithoutCancel(ctx)); disposeErr != nil {
			slog.Error("Failed to dispose baseline sandbox", "sandbox", sb.ID(), "error", disposeErr)
		}
	}()

	slog.Info("Starting initial test run", "sandbox", sb.ID(), "timeout", c.config.InitialTimeout)

	result, err = sb.Run(ctx, runner.RunOptions{Timeout: c.config.InitialTimeout, Coverage: true})
	if err != nil {
		slog.Error("Failed to run initial tests", "error", err)
		return m.RunResult{}, fmt.Errorf("failed to run initial tests: %w", err)
	}

	if err := baselineError(result); err != nil {
		slog.Error("Initial test run did not pass", "status", result.Status, "error", err)
		return result, err
	}

	return result, nil
}

func baselineError(result m.RunResult) error {
	switch result.Status {
	case m.RunTimeout:
		return fmt.Errorf("%w: timed out", ErrBaselineFailed)
	case m.RunError:
		return fmt.Errorf("%w: %s", ErrBaselineFailed, strings.Join(result.ErrorMessages, "; "))
	case m.RunComplete:
	}

	failed := result.FailedTests()
	if len(failed) == 0 {
		return nil
	}

	names := make([]string, 0, len(failed))
	for _, test := range failed {
		names = append(names, test.Name)
	}

	return fmt.Errorf("%w: %d failing test(s): %s", ErrBaselineFailed, len(failed), strings.Join(names, ", "))
}

// RunMutants tests every mutant. Results are returned in input order.
// Mutants without coverage are classified without touching a sandbox.
func (c *coordinator) RunMutants(ctx context.Context, mutants []m.TestableMutant, sink ResultSink) ([]m.MutantResult, error) {
	results := make([]m.MutantResult, len(mutants))

	var sinkMu sync.Mutex

	report := func(index int, result m.MutantResult) {
		sinkMu.Lock()
		defer sinkMu.Unlock()

		results[index] = result
		c.config.Metrics.ObserveMutant(result)

		if sink != nil {
			sink.OnMutantTested(result)
		}
	}

	coverable := 0

	for _, mutant := range mutants {
		if !mutant.Scope.Empty() {
			coverable++
		}
	}

	pool, err := c.startPool(ctx, min(c.size, coverable))
	if err != nil {
		return nil, err
	}

	defer c.disposePool(context.WithoutCancel(ctx), pool)

	idle := make(chan sandbox.Sandbox, len(pool))
	for _, sb := range pool {
		idle <- sb
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(len(pool), 1))

	for index, mutant := range mutants {
		if mutant.Scope.Empty() {
			report(index, m.NewMutantResult(mutant.Mutant, m.NoCoverage))
			continue
		}

		var sb sandbox.Sandbox

		select {
		case sb = <-idle:
		case <-groupCtx.Done():
		}

		if sb == nil {
			break
		}

		group.Go(func() error {
			defer func() { idle <- sb }()

			if err := groupCtx.Err(); err != nil {
				return err
			}

			result := c.config.Orchestrator.TestMutant(groupCtx, sb, mutant)
			if err := groupCtx.Err(); err != nil {
				return err
			}

			report(index, result)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if sink != nil {
		sink.OnAllMutantsTested(results)
	}

	return results, nil
}

func (c *coordinator) startPool(ctx context.Context, size int) ([]sandbox.Sandbox, error) {
	pool := make([]sandbox.Sandbox, size)
	for i := range pool {
		pool[i] = c.config.NewSandbox()
	}

	slog.Info("Initializing sandboxes", "count", size)

	group, groupCtx := errgroup.WithContext(ctx)

	for _, sb := range pool {
		group.Go(func() error {
			if err := sb.Initialize(groupCtx); err != nil {
				slog.Error("Failed to initialize sandbox", "sandbox", sb.ID(), "error", err)
				return fmt.Errorf("failed to initialize sandbox %s: %w", sb.ID(), err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		c.disposeSandboxes(context.WithoutCancel(ctx), pool)
		return nil, err
	}

	c.config.Metrics.SandboxesUp(size)

	return pool, nil
}

func (c *coordinator) disposePool(ctx context.Context, pool []sandbox.Sandbox) {
	c.disposeSandboxes(ctx, pool)
	c.config.Metrics.SandboxesUp(-len(pool))
}

func (c *coordinator) disposeSandboxes(ctx context.Context, pool []sandbox.Sandbox) {
	var group errgroup.Group

	for _, sb := range pool {
		group.Go(func() error {
			if err := sb.Dispose(ctx); err != nil {
				slog.Error("Failed to dispose sandbox", "sandbox", sb.ID(), "error", err)
			}

			return nil
		})
	}

	_ = group.Wait()
}
