package adapter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutexec/internal/model"
)

func TestReportStore_SaveAndLoad(t *testing.T) {
	store := NewReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), "reports"))

	report := m.Report{
		RunID:       "run-1",
		ProjectRoot: "/src/calc",
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt:  time.Date(2026, 1, 2, 3, 5, 5, 0, time.UTC),
		Baseline:    m.RunSummary{Tests: 3, Skipped: 1, TimeSpentMs: 12},
		Score:       m.Score{Detected: 1, NoCoverage: 1},
		Mutants: []m.MutantResult{
			{ID: "1", FileName: "calc.go", Status: m.Killed, TestsRan: []string{"TestAdd"}, FailureMessage: "boom"},
			{ID: "2", FileName: "calc.go", Status: m.NoCoverage},
		},
	}

	path, err := store.SaveReport(dir, report)
	require.NoError(t, err)
	assert.Equal(t, m.Path(filepath.Join(string(dir), ReportFileName)), path)

	fromFile, err := store.LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, report.Mutants, fromFile.Mutants)
	assert.True(t, report.StartedAt.Equal(fromFile.StartedAt))

	fromDir, err := store.LoadReport(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-1", fromDir.RunID)
	assert.Equal(t, report.Baseline, fromDir.Baseline)
}

func TestReportStore_LoadMissing(t *testing.T) {
	_, err := NewReportStore().LoadReport(m.Path(t.TempDir()))
	require.Error(t, err)
}
