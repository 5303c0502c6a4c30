package controller

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutexec/internal/model"
)

func update(t *testing.T, pm progressModel, msg tea.Msg) (progressModel, tea.Cmd) {
	t.Helper()

	next, cmd := pm.Update(msg)

	model, ok := next.(progressModel)
	require.True(t, ok)

	return model, cmd
}

func TestProgressModel_TracksResults(t *testing.T) {
	pm := newProgressModel(ModeTest)

	pm, _ = update(t, pm, baselineMsg{summary: m.RunSummary{Tests: 4, Skipped: 1, TimeSpentMs: 40}})
	pm, _ = update(t, pm, concurrencyMsg{sandboxes: 2, shardIndex: 0, shardCount: 1})
	pm, _ = update(t, pm, upcomingMsg(3))
	pm, _ = update(t, pm, resultMsg(m.MutantResult{ID: "1", Status: m.Killed}))
	pm, _ = update(t, pm, resultMsg(survivor()))

	assert.Equal(t, 2, pm.tested)
	assert.Equal(t, 1, pm.counts[m.Killed])
	assert.Len(t, pm.survivors, 1)

	view := pm.View()
	assert.Contains(t, view, "Initial test run: 4 test(s), 1 skipped, 0 failed, 40ms")
	assert.Contains(t, view, "2 sandbox(es), shard 0/1")
	assert.Contains(t, view, "2/3")
	assert.Contains(t, view, "killed 1")
	assert.Contains(t, view, "calc.go:4:11 ArithmeticOperator")
}

func TestProgressModel_FinishesWithScore(t *testing.T) {
	pm := newProgressModel(ModeTest)

	pm, _ = update(t, pm, scoreMsg(m.Score{Detected: 1, Survived: 1}))
	pm, cmd := update(t, pm, finishedMsg{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, pm.finished)
	assert.Contains(t, pm.View(), "Mutation score 50.00%")
}

func TestProgressModel_BaselineModeQuitsAfterBaseline(t *testing.T) {
	pm := newProgressModel(ModeBaseline)

	pm, cmd := update(t, pm, baselineMsg{summary: m.RunSummary{Tests: 1}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.NotContains(t, pm.View(), "Mutation score")
}

func TestProgressModel_BaselineFailureQuits(t *testing.T) {
	pm := newProgressModel(ModeTest)

	pm, cmd := update(t, pm, baselineMsg{err: errors.New("initial test run failed: 1 failing test(s)")})

	require.NotNil(t, cmd)
	assert.Contains(t, pm.View(), "1 failing test(s)")
}

func TestProgressModel_QuitKey(t *testing.T) {
	pm := newProgressModel(ModeTest)

	_, cmd := update(t, pm, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgressModel_SurvivorListIsCapped(t *testing.T) {
	pm := newProgressModel(ModeTest)
	pm.total = 20

	for range 12 {
		pm = pm.record(survivor())
	}

	assert.Contains(t, pm.View(), "... and 4 more")
}

func TestTUI_DisplayReport(t *testing.T) {
	var buf bytes.Buffer

	tui := NewTUI(&buf)
	require.NoError(t, tui.Start(context.Background(), WithViewMode()))

	tui.DisplayReport(context.Background(), m.Report{
		RunID:   "run-9",
		Score:   m.Score{Detected: 1, Survived: 1},
		Mutants: []m.MutantResult{{ID: "1", Status: m.Killed}, survivor()},
	})
	tui.Close(context.Background())
	tui.Wait(context.Background())

	output := buf.String()
	assert.Contains(t, output, "mutexec report run-9")
	assert.Contains(t, output, "2/2")
	assert.Contains(t, output, "Mutation score 50.00%")
}

func TestNewUI(t *testing.T) {
	cmd := &cobra.Command{}

	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false))
	assert.IsType(t, &TUI{}, NewUI(cmd, true))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
