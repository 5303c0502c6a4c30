package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd  *cobra.Command
	mode StartMode
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mode = buildStartConfig(options).mode

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait returns immediately: SimpleUI prints as results arrive.
func (s *SimpleUI) Wait(context.Context) {}

// DisplayBaseline prints the initial run. Per-test rows are only printed in
// baseline mode.
func (s *SimpleUI) DisplayBaseline(ctx context.Context, result m.RunResult, err error) {
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		s.printf("Initial test run failed: %v\n", err)
	}

	summary := result.Summarize()

	if s.mode == ModeBaseline {
		s.printf("\n%s", renderBaselineTable(result))
	}

	s.printf("Initial test run: %d test(s), %d skipped, %dms, %s\n",
		summary.Tests, summary.Skipped, summary.TimeSpentMs, result.Status)
}

func renderBaselineTable(result m.RunResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Status", "Time (ms)", "Files Covered"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	for _, test := range result.Tests {
		files := "-"
		if coverage, ok := result.Coverage[test.Name]; ok {
			files = fmt.Sprintf("%d", len(coverage))
		}

		table.Append([]string{test.Name, test.Status.String(), fmt.Sprintf("%d", test.TimeSpentMs), files})
	}

	summary := result.Summarize()
	table.SetFooter([]string{
		fmt.Sprintf("Total Tests %d", summary.Tests),
		fmt.Sprintf("%d failed", len(result.FailedTests())),
		fmt.Sprintf("%d", summary.TimeSpentMs),
		"",
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayConcurrencyInfo shows the sandbox pool size.
func (s *SimpleUI) DisplayConcurrencyInfo(ctx context.Context, sandboxes int, shardIndex int, shardCount int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Running with %d sandbox(es) (Shard %d/%d)\n", sandboxes, shardIndex, shardCount)
}

// DisplayUpcomingTestsInfo shows the number of mutants to be tested.
func (s *SimpleUI) DisplayUpcomingTestsInfo(ctx context.Context, count int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Upcoming mutants: %d\n", count)
}

// DisplayCompletedTestInfo shows the outcome of one mutant, with a diff for
// the ones the tests missed.
func (s *SimpleUI) DisplayCompletedTestInfo(ctx context.Context, result m.MutantResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Mutant %s (%s) %s -> %s\n", result.ID, result.MutatorName, formatLocation(result), result.Status)

	if result.StatusReason != "" && result.Status != m.Killed {
		s.printf("  %s\n", result.StatusReason)
	}

	if result.Status == m.Survived || result.Status == m.NoCoverage {
		s.printf("%s", mutantDiff(result))
	}
}

// DisplayMutationScore prints the final mutation score.
func (s *SimpleUI) DisplayMutationScore(ctx context.Context, score m.Score) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Mutation score: %.2f%% (covered: %.2f%%)\n", score.Total(), score.Covered())
}

// DisplayReport prints a saved report.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Run %s (%s)\n", report.RunID, report.ProjectRoot)
	s.printf("\n%s", renderReportTable(report.Mutants))

	for _, result := range report.Mutants {
		if result.Status == m.Survived {
			s.printf("Survived %s (%s) %s\n%s", result.ID, result.MutatorName, formatLocation(result), mutantDiff(result))
		}
	}

	s.printf("Mutation score: %.2f%% (covered: %.2f%%)\n", report.Score.Total(), report.Score.Covered())
}

type fileStat struct {
	path   string
	counts map[m.MutantStatus]int
	total  int
}

var reportColumns = []m.MutantStatus{m.Killed, m.Survived, m.TimedOut, m.NoCoverage, m.Error}

func buildFileStats(results []m.MutantResult) []fileStat {
	info := make(map[m.Path]*fileStat)

	for _, result := range results {
		stat, ok := info[result.FileName]
		if !ok {
			stat = &fileStat{path: string(result.FileName), counts: make(map[m.MutantStatus]int)}
			info[result.FileName] = stat
		}

		stat.counts[result.Status]++
		stat.total++
	}

	statsList := make([]fileStat, 0, len(info))
	for _, stat := range info {
		statsList = append(statsList, *stat)
	}

	sort.Slice(statsList, func(i, j int) bool {
		return statsList[i].path < statsList[j].path
	})

	return statsList
}

func renderReportTable(results []m.MutantResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)

	header := []string{"Path"}
	alignment := []int{tablewriter.ALIGN_LEFT}

	for _, status := range reportColumns {
		header = append(header, status.String())
		alignment = append(alignment, tablewriter.ALIGN_CENTER)
	}

	table.SetHeader(append(header, "Total"))
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment(append(alignment, tablewriter.ALIGN_CENTER))

	stats := buildFileStats(results)

	for _, stat := range stats {
		row := []string{stat.path}
		for _, status := range reportColumns {
			row = append(row, fmt.Sprintf("%d", stat.counts[status]))
		}

		table.Append(append(row, fmt.Sprintf("%d", stat.total)))
	}

	totals := m.CountByStatus(results)
	footer := []string{fmt.Sprintf("Total Files %d", len(stats))}

	for _, status := range reportColumns {
		footer = append(footer, fmt.Sprintf("%d", totals[status]))
	}

	table.SetFooter(append(footer, fmt.Sprintf("%d", len(results))))
	table.Render()

	return tableBuffer.String()
}

func formatLocation(result m.MutantResult) string {
	return fmt.Sprintf("%s:%d:%d", result.FileName, result.Location.Start.Line, result.Location.Start.Column+1)
}

func mutantDiff(result m.MutantResult) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(result.Original),
		B:        difflib.SplitLines(result.Replacement),
		FromFile: string(result.FileName),
		ToFile:   string(result.FileName) + " (" + result.MutatorName + ")",
		Context:  0,
	})
	if err != nil {
		return ""
	}

	var b strings.Builder

	for _, line := range strings.SplitAfter(diff, "\n") {
		if line != "" {
			b.WriteString("  " + line)
		}
	}

	return b.String()
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
