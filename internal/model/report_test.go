package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	var score Score

	for _, status := range []MutantStatus{Killed, Killed, TimedOut, Survived, NoCoverage, Error, Error} {
		score.Add(MutantResult{Status: status})
	}

	assert.Equal(t, Score{Detected: 3, Survived: 1, NoCoverage: 1, Errors: 2}, score)
	assert.InDelta(t, 60.0, score.Total(), 1e-9)
	assert.InDelta(t, 75.0, score.Covered(), 1e-9)
}

func TestScore_EmptyIsPerfect(t *testing.T) {
	assert.Equal(t, 100.0, Score{}.Total())
	assert.Equal(t, 100.0, Score{Errors: 4}.Covered())
	assert.Equal(t, 0.0, Score{NoCoverage: 2}.Total())
}

func TestRunResult_Summarize(t *testing.T) {
	run := RunResult{Tests: []TestResult{
		{Name: "a", Status: TestSuccess, TimeSpentMs: 4},
		{Name: "b", Status: TestSkipped},
		{Name: "c", Status: TestFailed, TimeSpentMs: 6},
	}}

	assert.Equal(t, RunSummary{Tests: 3, Skipped: 1, TimeSpentMs: 10}, run.Summarize())
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus([]MutantResult{{Status: Killed}, {Status: Killed}, {Status: NoCoverage}})

	assert.Equal(t, 2, counts[Killed])
	assert.Equal(t, 1, counts[NoCoverage])
	assert.Zero(t, counts[Survived])
}
