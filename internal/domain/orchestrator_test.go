package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/internal/sandbox/mocks"
)

func testMutant(id string) m.Mutant {
	return m.Mutant{
		ID:          id,
		FileName:    "src/add.go",
		MutatorName: "ArithmeticOperator",
		Range:       [2]int{10, 11},
		Location:    m.Location{Start: m.Position{Line: 3, Column: 10}, End: m.Position{Line: 3, Column: 11}},
		Original:    "+",
		Replacement: "-",
	}
}

func covered(id string, tests ...string) m.TestableMutant {
	return m.TestableMutant{
		Mutant: testMutant(id),
		Scope:  m.ScopedTestSet{TestIDs: tests, TimeSpentMs: 10, HitCount: 1},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		run            m.RunResult
		status         m.MutantStatus
		reason         string
		testsRan       []string
		failureMessage string
	}{
		{
			name:   "error run",
			run:    m.RunResult{Status: m.RunError, ErrorMessages: []string{"test runner crashed 3 times"}},
			status: m.Error,
			reason: "test runner crashed 3 times",
		},
		{
			name:   "timeout without reason",
			run:    m.RunResult{Status: m.RunTimeout},
			status: m.TimedOut,
			reason: "timed out",
		},
		{
			name:   "hit limit",
			run:    m.RunResult{Status: m.RunTimeout, ErrorMessages: []string{"Hit limit reached (301/300)"}},
			status: m.TimedOut,
			reason: "Hit limit reached (301/300)",
		},
		{
			name: "one failure kills",
			run: m.RunResult{Status: m.RunComplete, Tests: []m.TestResult{
				{Name: "test2", Status: m.TestFailed, FailureMessages: []string{"expected 3, got -1"}},
			}},
			status:         m.Killed,
			reason:         "test2",
			testsRan:       []string{"test2"},
			failureMessage: "expected 3, got -1",
		},
		{
			name: "first failure is the killer",
			run: m.RunResult{Status: m.RunComplete, Tests: []m.TestResult{
				{Name: "a", Status: m.TestSuccess},
				{Name: "b", Status: m.TestFailed, FailureMessages: []string{"b broke"}},
				{Name: "c", Status: m.TestFailed, FailureMessages: []string{"c broke"}},
				{Name: "d", Status: m.TestSkipped},
			}},
			status:         m.Killed,
			reason:         "b",
			testsRan:       []string{"a", "b", "c"},
			failureMessage: "b broke",
		},
		{
			name: "no failures survive",
			run: m.RunResult{Status: m.RunComplete, Tests: []m.TestResult{
				{Name: "a", Status: m.TestSuccess},
			}},
			status:   m.Survived,
			testsRan: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(testMutant("1"), tt.run)

			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.reason, result.StatusReason)
			assert.Equal(t, tt.failureMessage, result.FailureMessage)

			if tt.testsRan != nil {
				assert.Equal(t, tt.testsRan, result.TestsRan)
			}

			assert.Equal(t, "1", result.ID)
			assert.Equal(t, m.Path("src/add.go"), result.FileName)
		})
	}
}

func TestOrchestrator_NoCoverageNeverTouchesSandbox(t *testing.T) {
	sb := mocks.NewMockSandbox(t)

	result := NewOrchestrator().TestMutant(context.Background(), sb, m.TestableMutant{Mutant: testMutant("7")})

	assert.Equal(t, m.NoCoverage, result.Status)
	sb.AssertNotCalled(t, "RunMutant", mock.Anything, mock.Anything)
}

func TestOrchestrator_RunMutantErrorIsErrorResult(t *testing.T) {
	sb := mocks.NewMockSandbox(t)
	sb.EXPECT().ID().Return("sb-1").Maybe()
	sb.EXPECT().RunMutant(mock.Anything, mock.Anything).Return(m.RunResult{}, errors.New("mutant mismatch"))

	result := NewOrchestrator().TestMutant(context.Background(), sb, covered("1", "test1"))

	assert.Equal(t, m.Error, result.Status)
	assert.Equal(t, "mutant mismatch", result.StatusReason)
}

func TestOrchestrator_KilledReportsTestsRan(t *testing.T) {
	sb := mocks.NewMockSandbox(t)
	sb.EXPECT().RunMutant(mock.Anything, covered("1", "test2")).Return(m.RunResult{
		Status: m.RunComplete,
		Tests:  []m.TestResult{{Name: "test2", Status: m.TestFailed, FailureMessages: []string{"boom"}}},
	}, nil)

	result := NewOrchestrator().TestMutant(context.Background(), sb, covered("1", "test2"))

	assert.Equal(t, m.Killed, result.Status)
	assert.Equal(t, []string{"test2"}, result.TestsRan)
	assert.Equal(t, "boom", result.FailureMessage)
	assert.GreaterOrEqual(t, result.TimeSpentMs, int64(0))
}
