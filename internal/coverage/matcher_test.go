package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "gooze.dev/pkg/mutexec/internal/model"
)

func loc(startLine, startCol, endLine, endCol int) m.Location {
	return m.Location{
		Start: m.Position{Line: startLine, Column: startCol},
		End:   m.Position{Line: endLine, Column: endCol},
	}
}

func mutantAt(location m.Location) m.Mutant {
	return m.Mutant{ID: "1", FileName: "src/add.js", Location: location}
}

func fiveTests() []m.TestResult {
	return []m.TestResult{
		{Name: "test1", Status: m.TestSuccess, TimeSpentMs: 10},
		{Name: "test2", Status: m.TestSuccess, TimeSpentMs: 20},
		{Name: "test3", Status: m.TestSuccess, TimeSpentMs: 30},
		{Name: "test4", Status: m.TestSuccess, TimeSpentMs: 40},
		{Name: "test5", Status: m.TestSuccess, TimeSpentMs: 50},
	}
}

func singleStatement(location m.Location, hits int64) m.CoverageResult {
	return m.CoverageResult{
		"src/add.js": {
			Statements: m.StatementMap{"0": location},
			Hits:       map[string]int64{"0": hits},
		},
	}
}

func TestSmallestEnclosingStatement(t *testing.T) {
	mutant := loc(3, 10, 3, 14)

	tests := []struct {
		name       string
		statements m.StatementMap
		want       string
		wantOK     bool
	}{
		{
			name:       "no statement encloses",
			statements: m.StatementMap{"a": loc(1, 0, 2, 5), "b": loc(3, 11, 3, 20)},
			wantOK:     false,
		},
		{
			name:       "fewer lines wins",
			statements: m.StatementMap{"wide": loc(1, 0, 9, 1), "narrow": loc(2, 0, 4, 0)},
			want:       "narrow",
			wantOK:     true,
		},
		{
			name:       "equal lines, smaller column margin wins",
			statements: m.StatementMap{"outer": loc(3, 0, 3, 40), "inner": loc(3, 8, 3, 20)},
			want:       "inner",
			wantOK:     true,
		},
		{
			name:       "single line beats multi line with tighter columns",
			statements: m.StatementMap{"multi": loc(2, 9, 3, 15), "single": loc(3, 0, 3, 80)},
			want:       "single",
			wantOK:     true,
		},
		{
			name:       "identical geometry falls back to id",
			statements: m.StatementMap{"z": loc(3, 0, 3, 20), "a": loc(3, 0, 3, 20)},
			want:       "a",
			wantOK:     true,
		},
		{
			name:       "statement equal to the mutant encloses it",
			statements: m.StatementMap{"exact": loc(3, 10, 3, 14)},
			want:       "exact",
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SmallestEnclosingStatement(tt.statements, mutant)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSmallestEnclosingStatement_Deterministic(t *testing.T) {
	statements := m.StatementMap{}
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		statements[id] = loc(1, 0, 1, 50)
	}

	for range 50 {
		got, ok := SmallestEnclosingStatement(statements, loc(1, 5, 1, 6))
		require.True(t, ok)
		require.Equal(t, "a", got)
	}
}

func TestMatcher_Match_CoveredByOneTest(t *testing.T) {
	statement := loc(3, 0, 3, 30)
	coverage := m.CoverageByTest{
		"test1": singleStatement(statement, 0),
		"test2": singleStatement(statement, 1),
		"test3": singleStatement(statement, 0),
		"test4": singleStatement(statement, 0),
		"test5": singleStatement(statement, 0),
	}

	scope := NewMatcher(fiveTests(), coverage).Match(mutantAt(loc(3, 5, 3, 8)))

	assert.Equal(t, []string{"test2"}, scope.TestIDs)
	assert.Equal(t, int64(20), scope.TimeSpentMs)
	assert.Equal(t, int64(1), scope.HitCount)
}

func TestMatcher_Match_ZeroHitsEverywhereIsEmpty(t *testing.T) {
	statement := loc(3, 0, 3, 30)
	coverage := m.CoverageByTest{}

	for _, test := range fiveTests() {
		coverage[test.Name] = singleStatement(statement, 0)
	}

	scope := NewMatcher(fiveTests(), coverage).Match(mutantAt(loc(3, 5, 3, 8)))

	assert.True(t, scope.Empty())
	assert.Equal(t, int64(0), scope.TimeSpentMs)
}

func TestMatcher_Match_SmallestStatementDecides(t *testing.T) {
	// The enclosing block was hit but the tight statement around the mutant was not.
	coverage := m.CoverageByTest{
		"test1": {
			"src/add.js": {
				Statements: m.StatementMap{"block": loc(1, 0, 10, 1), "stmt": loc(4, 2, 4, 20)},
				Hits:       map[string]int64{"block": 3, "stmt": 0},
			},
		},
	}

	scope := NewMatcher(fiveTests()[:1], coverage).Match(mutantAt(loc(4, 5, 4, 6)))

	assert.True(t, scope.Empty())
}

// A test without coverage data is assumed to cover everything, while a test
// whose data lacks an enclosing statement does not cover the mutant.
func TestMatcher_Match_FailOpenAsymmetry(t *testing.T) {
	tests := []m.TestResult{
		{Name: "uninstrumented", TimeSpentMs: 7},
		{Name: "nil-coverage", TimeSpentMs: 11},
		{Name: "other-file", TimeSpentMs: 13},
		{Name: "no-enclosing", TimeSpentMs: 17},
	}
	coverage := m.CoverageByTest{
		"nil-coverage": nil,
		"other-file":   {"src/other.js": {Statements: m.StatementMap{"0": loc(1, 0, 99, 0)}, Hits: map[string]int64{"0": 1}}},
		"no-enclosing": singleStatement(loc(50, 0, 60, 0), 4),
	}

	scope := NewMatcher(tests, coverage).Match(mutantAt(loc(3, 5, 3, 8)))

	assert.Equal(t, []string{"uninstrumented", "nil-coverage"}, scope.TestIDs)
	assert.Equal(t, int64(18), scope.TimeSpentMs)
	assert.Equal(t, int64(0), scope.HitCount)
}

func TestMatcher_Match_SkippedTestsNeverScoped(t *testing.T) {
	tests := []m.TestResult{
		{Name: "skipped", Status: m.TestSkipped, TimeSpentMs: 100},
		{Name: "ran", Status: m.TestSuccess, TimeSpentMs: 5},
	}

	scope := NewMatcher(tests, nil).Match(mutantAt(loc(1, 0, 1, 1)))

	assert.Equal(t, []string{"ran"}, scope.TestIDs)
	assert.Equal(t, int64(5), scope.TimeSpentMs)
}

func TestMatcher_Match_SumsTimeOfAllCoveringTests(t *testing.T) {
	statement := loc(2, 0, 2, 10)
	coverage := m.CoverageByTest{
		"test1": singleStatement(statement, 1),
		"test3": singleStatement(statement, 2),
		"test4": singleStatement(statement, 0),
		"test5": singleStatement(statement, 5),
	}

	scope := NewMatcher(fiveTests(), coverage).Match(mutantAt(loc(2, 1, 2, 2)))

	// test2 has no data at all and therefore counts as covering.
	assert.Equal(t, []string{"test1", "test2", "test3", "test5"}, scope.TestIDs)
	assert.Equal(t, int64(10+20+30+50), scope.TimeSpentMs)
	assert.Equal(t, int64(8), scope.HitCount)
}

func TestMatcher_MatchAll_KeepsOrder(t *testing.T) {
	mutants := []m.Mutant{
		{ID: "b", FileName: "src/add.js", Location: loc(2, 1, 2, 2)},
		{ID: "a", FileName: "src/add.js", Location: loc(40, 1, 40, 2)},
	}
	coverage := m.CoverageByTest{"test1": singleStatement(loc(2, 0, 2, 10), 1)}

	testable := NewMatcher(fiveTests()[:1], coverage).MatchAll(mutants)

	require.Len(t, testable, 2)
	assert.Equal(t, "b", testable[0].ID)
	assert.False(t, testable[0].Scope.Empty())
	assert.Equal(t, "a", testable[1].ID)
	assert.True(t, testable[1].Scope.Empty())
}

func TestMatcher_Match_NormalizesFileNames(t *testing.T) {
	coverage := m.CoverageByTest{
		"test1": {"./src/add.js": {Statements: m.StatementMap{"0": loc(2, 0, 2, 10)}, Hits: map[string]int64{"0": 1}}},
	}

	scope := NewMatcher(fiveTests()[:1], coverage).Match(mutantAt(loc(2, 1, 2, 2)))

	assert.Equal(t, []string{"test1"}, scope.TestIDs)
}
