package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gooze.dev/pkg/mutexec/internal/adapter"
	"gooze.dev/pkg/mutexec/internal/controller"
	"gooze.dev/pkg/mutexec/internal/coverage"
	"gooze.dev/pkg/mutexec/internal/metrics"
	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/pkg/filespill"
)

// RunArgs contains the arguments for testing the mutants of a plan.
type RunArgs struct {
	Plan            m.Path
	Reports         m.Path
	MetricsFile     string
	ShardIndex      int
	TotalShardCount int
}

// BaselineArgs contains the arguments for an initial run only.
type BaselineArgs struct {
	Plan m.Path
}

// ViewArgs contains the arguments for rendering a saved report.
type ViewArgs struct {
	Report m.Path
}

// Workflow defines the interface for the engine's top level operations.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	Baseline(ctx context.Context, args BaselineArgs) error
	View(ctx context.Context, args ViewArgs) error
}

// CoordinatorFactory builds the coordinator serving plan.
type CoordinatorFactory func(plan m.Plan, mt *metrics.Metrics) Coordinator

type workflow struct {
	adapter.PlanStore
	adapter.ReportStore
	ui             controller.UI
	newCoordinator CoordinatorFactory
	now            func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	planStore adapter.PlanStore,
	reportStore adapter.ReportStore,
	ui controller.UI,
	newCoordinator CoordinatorFactory,
) Workflow {
	return &workflow{
		PlanStore:      planStore,
		ReportStore:    reportStore,
		ui:             ui,
		newCoordinator: newCoordinator,
		now:            time.Now,
	}
}

func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	runID := uuid.NewString()
	started := w.now()

	plan, err := w.LoadPlan(args.Plan)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	mt := metrics.New(runID)
	coordinator := w.newCoordinator(plan, mt)

	if err := w.ui.Start(ctx, controller.WithTestMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer func() {
		w.ui.Close(ctx)
		w.ui.Wait(ctx)
	}()

	slog.Info("Starting run", "run", runID, "plan", args.Plan, "mutants", len(plan.Mutants))

	baseline, err := coordinator.InitialRun(ctx)
	w.ui.DisplayBaseline(ctx, baseline, err)

	if err != nil {
		return fmt.Errorf("initial run: %w", err)
	}

	testable := coverage.NewMatcher(baseline.Tests, baseline.Coverage).MatchAll(plan.Mutants)
	shard := ShardMutants(testable, args.ShardIndex, args.TotalShardCount)

	w.ui.DisplayConcurrencyInfo(ctx, coordinator.PoolSize(), args.ShardIndex, max(args.TotalShardCount, 1))
	w.ui.DisplayUpcomingTestsInfo(ctx, len(shard))

	spill, err := filespill.New[m.MutantResult]("")
	if err != nil {
		return fmt.Errorf("create result spill: %w", err)
	}

	defer func() {
		if closeErr := spill.Close(); closeErr != nil {
			slog.Warn("Failed to close result spill", "path", spill.Path(), "error", closeErr)
		}
	}()

	sink := &spillSink{ctx: ctx, ui: w.ui, spill: spill}

	results, err := coordinator.RunMutants(ctx, shard, sink)
	if err != nil {
		return fmt.Errorf("run mutants: %w", err)
	}

	if err := sink.Err(); err != nil {
		return fmt.Errorf("spill results: %w", err)
	}

	score, err := mutationScoreFromSpill(spill)
	if err != nil {
		return fmt.Errorf("compute mutation score: %w", err)
	}

	w.ui.DisplayMutationScore(ctx, score)

	report := m.Report{
		RunID:       runID,
		ProjectRoot: plan.ProjectRoot,
		StartedAt:   started,
		FinishedAt:  w.now(),
		Baseline:    baseline.Summarize(),
		Score:       score,
		Mutants:     results,
	}

	path, err := w.SaveReport(reportsDir(args), report)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("Run finished", "run", runID, "report", path, "score", score.Total())

	if err := mt.WriteTextfile(args.MetricsFile); err != nil {
		return err
	}

	return nil
}

func (w *workflow) Baseline(ctx context.Context, args BaselineArgs) error {
	plan, err := w.LoadPlan(args.Plan)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	coordinator := w.newCoordinator(plan, nil)

	if err := w.ui.Start(ctx, controller.WithBaselineMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer func() {
		w.ui.Close(ctx)
		w.ui.Wait(ctx)
	}()

	baseline, err := coordinator.InitialRun(ctx)
	w.ui.DisplayBaseline(ctx, baseline, err)

	if err != nil {
		return fmt.Errorf("initial run: %w", err)
	}

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.LoadReport(args.Report)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	if err := w.ui.Start(ctx, controller.WithViewMode()); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	defer w.ui.Close(ctx)

	w.ui.DisplayReport(ctx, report)

	return nil
}

// ShardMutants keeps the mutants whose position in the plan falls into
// shardIndex. A totalShardCount of zero or one keeps everything.
func ShardMutants(mutants []m.TestableMutant, shardIndex int, totalShardCount int) []m.TestableMutant {
	if totalShardCount <= 1 {
		return mutants
	}

	var shard []m.TestableMutant

	for i, mutant := range mutants {
		if i%totalShardCount == shardIndex {
			shard = append(shard, mutant)
		}
	}

	return shard
}

func reportsDir(args RunArgs) m.Path {
	if args.TotalShardCount <= 1 {
		return args.Reports
	}

	return m.Path(filepath.Join(string(args.Reports), fmt.Sprintf("shard_%d", args.ShardIndex)))
}

// spillSink streams results into the spill and the UI.
type spillSink struct {
	ctx   context.Context
	ui    controller.UI
	spill filespill.Spill[m.MutantResult]

	mu   sync.Mutex
	errs []error
}

func (s *spillSink) OnMutantTested(result m.MutantResult) {
	if err := s.spill.Append(result); err != nil {
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}

	s.ui.DisplayCompletedTestInfo(s.ctx, result)
}

func (s *spillSink) OnAllMutantsTested(results []m.MutantResult) {
	counts := m.CountByStatus(results)

	slog.Info("All mutants tested",
		"total", len(results),
		"killed", counts[m.Killed],
		"survived", counts[m.Survived],
		"timedOut", counts[m.TimedOut],
		"noCoverage", counts[m.NoCoverage],
		"error", counts[m.Error],
	)
}

func (s *spillSink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Join(s.errs...)
}
