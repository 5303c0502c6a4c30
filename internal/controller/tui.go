package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "gooze.dev/pkg/mutexec/internal/model"
)

const maxSurvivorsShown = 8

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7A89"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	scoreStyle    = lipgloss.NewStyle().Bold(true)
	survivorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#16858E")).Padding(0, 1)

	statusStyles = map[m.MutantStatus]lipgloss.Style{
		m.Killed:     lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71")),
		m.Survived:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
		m.TimedOut:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3498DB")),
		m.NoCoverage: lipgloss.NewStyle().Foreground(lipgloss.Color("#E67E22")),
		m.Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
	}
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress view. View mode renders statically and starts
// nothing.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := buildStartConfig(options)
	if config.mode == ModeView {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.program = tea.NewProgram(newProgressModel(config.mode), tea.WithOutput(t.output), tea.WithContext(ctx))
	t.done = make(chan struct{})

	go func(program *tea.Program, done chan struct{}) {
		defer close(done)

		_, _ = program.Run()
	}(t.program, t.done)

	return nil
}

// Close asks the progress view to render its final frame and exit.
func (t *TUI) Close(context.Context) {
	t.send(finishedMsg{})
}

// Wait blocks until the progress view has exited.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// DisplayBaseline reports the initial run.
func (t *TUI) DisplayBaseline(_ context.Context, result m.RunResult, err error) {
	t.send(baselineMsg{summary: result.Summarize(), failed: len(result.FailedTests()), err: err})
}

// DisplayConcurrencyInfo reports the sandbox pool.
func (t *TUI) DisplayConcurrencyInfo(_ context.Context, sandboxes int, shardIndex int, shardCount int) {
	t.send(concurrencyMsg{sandboxes: sandboxes, shardIndex: shardIndex, shardCount: shardCount})
}

// DisplayUpcomingTestsInfo sets the number of mutants the bar tracks.
func (t *TUI) DisplayUpcomingTestsInfo(_ context.Context, count int) {
	t.send(upcomingMsg(count))
}

// DisplayCompletedTestInfo advances the bar.
func (t *TUI) DisplayCompletedTestInfo(_ context.Context, result m.MutantResult) {
	t.send(resultMsg(result))
}

// DisplayMutationScore shows the final score.
func (t *TUI) DisplayMutationScore(_ context.Context, score m.Score) {
	t.send(scoreMsg(score))
}

// DisplayReport renders a saved report without an event loop.
func (t *TUI) DisplayReport(ctx context.Context, report m.Report) {
	if ctx.Err() != nil {
		return
	}

	model := newProgressModel(ModeView)
	model.total = len(report.Mutants)

	for _, result := range report.Mutants {
		model = model.record(result)
	}

	score := report.Score
	model.score = &score
	model.finished = true

	_, _ = fmt.Fprintln(t.output, titleStyle.Render("mutexec report "+report.RunID))
	_, _ = fmt.Fprint(t.output, model.View())
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

type (
	baselineMsg struct {
		summary m.RunSummary
		failed  int
		err     error
	}
	concurrencyMsg struct {
		sandboxes, shardIndex, shardCount int
	}
	upcomingMsg int
	resultMsg   m.MutantResult
	scoreMsg    m.Score
	finishedMsg struct{}
)

// progressModel is the Bubble Tea model of a running engine.
type progressModel struct {
	mode     StartMode
	spinner  spinner.Model
	progress progress.Model

	baseline    *baselineMsg
	concurrency *concurrencyMsg
	total       int
	tested      int
	counts      map[m.MutantStatus]int
	survivors   []m.MutantResult
	score       *m.Score
	finished    bool
}

func newProgressModel(mode StartMode) progressModel {
	return progressModel{
		mode:     mode,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		counts:   make(map[m.MutantStatus]int),
	}
}

func (pm progressModel) Init() tea.Cmd {
	return pm.spinner.Tick
}

func (pm progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		pm.progress.Width = max(min(msg.Width-30, 60), 10)
		return pm, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return pm, tea.Quit
		}

		return pm, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		pm.spinner, cmd = pm.spinner.Update(msg)

		return pm, cmd
	case baselineMsg:
		pm.baseline = &msg
		if pm.mode == ModeBaseline || msg.err != nil {
			pm.finished = true
			return pm, tea.Quit
		}

		return pm, nil
	case concurrencyMsg:
		pm.concurrency = &msg
		return pm, nil
	case upcomingMsg:
		pm.total = int(msg)
		return pm, nil
	case resultMsg:
		return pm.record(m.MutantResult(msg)), nil
	case scoreMsg:
		score := m.Score(msg)
		pm.score = &score

		return pm, nil
	case finishedMsg:
		pm.finished = true
		return pm, tea.Quit
	}

	return pm, nil
}

func (pm progressModel) record(result m.MutantResult) progressModel {
	counts := make(map[m.MutantStatus]int, len(pm.counts)+1)
	for status, count := range pm.counts {
		counts[status] = count
	}

	counts[result.Status]++
	pm.counts = counts
	pm.tested++

	if result.Status == m.Survived {
		pm.survivors = append(pm.survivors[:len(pm.survivors):len(pm.survivors)], result)
	}

	return pm
}

func (pm progressModel) View() string {
	var b strings.Builder

	if pm.mode != ModeView {
		b.WriteString(titleStyle.Render("mutexec") + "\n\n")
	}

	pm.renderBaseline(&b)

	if pm.mode == ModeBaseline {
		return b.String()
	}

	if pm.concurrency != nil {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("%d sandbox(es), shard %d/%d",
			pm.concurrency.sandboxes, pm.concurrency.shardIndex, pm.concurrency.shardCount)))
	}

	if pm.total > 0 || pm.tested > 0 {
		ratio := 1.0
		if pm.total > 0 {
			ratio = float64(pm.tested) / float64(pm.total)
		}

		prefix := pm.spinner.View() + " "
		if pm.finished {
			prefix = "  "
		}

		fmt.Fprintf(&b, "%s%s %d/%d\n", prefix, pm.progress.ViewAs(min(ratio, 1)), pm.tested, pm.total)
		b.WriteString("  " + pm.renderCounts() + "\n")
	}

	pm.renderSurvivors(&b)

	if pm.score != nil {
		b.WriteString("\n" + boxStyle.Render(scoreStyle.Render(fmt.Sprintf("Mutation score %.2f%%", pm.score.Total()))+
			mutedStyle.Render(fmt.Sprintf("  covered %.2f%%", pm.score.Covered()))) + "\n")
	}

	if !pm.finished {
		b.WriteString(mutedStyle.Render("\nq: quit view") + "\n")
	}

	return b.String()
}

func (pm progressModel) renderBaseline(b *strings.Builder) {
	switch {
	case pm.baseline == nil && pm.mode != ModeView:
		fmt.Fprintf(b, "%s Running initial tests...\n", pm.spinner.View())
	case pm.baseline == nil:
	case pm.baseline.err != nil:
		b.WriteString(errorStyle.Render("Initial test run failed: "+pm.baseline.err.Error()) + "\n")
	default:
		fmt.Fprintf(b, "Initial test run: %d test(s), %d skipped, %d failed, %dms\n",
			pm.baseline.summary.Tests, pm.baseline.summary.Skipped, pm.baseline.failed, pm.baseline.summary.TimeSpentMs)
	}
}

func (pm progressModel) renderCounts() string {
	parts := make([]string, 0, len(reportColumns))

	for _, status := range reportColumns {
		label := fmt.Sprintf("%s %d", status, pm.counts[status])
		if pm.counts[status] == 0 {
			parts = append(parts, mutedStyle.Render(label))
			continue
		}

		parts = append(parts, statusStyles[status].Render(label))
	}

	return strings.Join(parts, "  ")
}

func (pm progressModel) renderSurvivors(b *strings.Builder) {
	if len(pm.survivors) == 0 {
		return
	}

	b.WriteString("\n" + survivorStyle.Render("Survived") + "\n")

	shown := pm.survivors
	if len(shown) > maxSurvivorsShown {
		shown = shown[len(shown)-maxSurvivorsShown:]
	}

	for _, result := range shown {
		fmt.Fprintf(b, "  %s %s %s\n", formatLocation(result), result.MutatorName,
			mutedStyle.Render(fmt.Sprintf("%q -> %q", result.Original, result.Replacement)))
	}

	if hidden := len(pm.survivors) - len(shown); hidden > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... and %d more", hidden)) + "\n")
	}
}
