package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutantStatus_String(t *testing.T) {
	tests := []struct {
		status MutantStatus
		want   string
	}{
		{Killed, "killed"},
		{Survived, "survived"},
		{TimedOut, "timedOut"},
		{NoCoverage, "noCoverage"},
		{Error, "error"},
		{MutantStatus(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestRunResult_StatusesEncodeAsNames(t *testing.T) {
	result := RunResult{
		Status: RunTimeout,
		Tests:  []TestResult{{Name: "TestA", Status: TestFailed}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"timeout"`)
	assert.Contains(t, string(data), `"status":"failed"`)

	var decoded RunResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result, decoded)
}

func TestRunStatus_UnmarshalUnknown(t *testing.T) {
	var status RunStatus
	require.Error(t, status.UnmarshalText([]byte("bogus")))
}

func TestRunResult_FailedAndRanTests(t *testing.T) {
	result := RunResult{Tests: []TestResult{
		{Name: "a", Status: TestSuccess},
		{Name: "b", Status: TestFailed},
		{Name: "c", Status: TestSkipped},
		{Name: "d", Status: TestFailed},
	}}

	failed := result.FailedTests()
	require.Len(t, failed, 2)
	assert.Equal(t, "b", failed[0].Name)
	assert.Equal(t, "d", failed[1].Name)
	assert.Equal(t, []string{"a", "b", "d"}, result.RanTestNames())
}

func TestLocation_Encloses(t *testing.T) {
	outer := Location{Start: Position{Line: 2, Column: 4}, End: Position{Line: 5, Column: 1}}

	assert.True(t, outer.Encloses(Location{Start: Position{Line: 2, Column: 4}, End: Position{Line: 5, Column: 1}}))
	assert.True(t, outer.Encloses(Location{Start: Position{Line: 3, Column: 0}, End: Position{Line: 3, Column: 9}}))
	assert.False(t, outer.Encloses(Location{Start: Position{Line: 2, Column: 3}, End: Position{Line: 3, Column: 0}}))
	assert.False(t, outer.Encloses(Location{Start: Position{Line: 4, Column: 0}, End: Position{Line: 5, Column: 2}}))
}
