// Package coverage maps mutants onto the tests whose baseline coverage can
// detect them.
package coverage

import (
	"log/slog"
	"sort"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// Matcher computes the scoped test set of a mutant.
type Matcher interface {
	Match(mutant m.Mutant) m.ScopedTestSet
	MatchAll(mutants []m.Mutant) []m.TestableMutant
}

type matcher struct {
	tests    []m.TestResult
	coverage m.CoverageByTest
}

// NewMatcher builds a Matcher from the tests and coverage of a baseline run.
// Test order is preserved in every ScopedTestSet it produces.
func NewMatcher(tests []m.TestResult, coverage m.CoverageByTest) Matcher {
	return &matcher{
		tests:    tests,
		coverage: coverage,
	}
}

// Match returns the tests covering mutant and the sum of their elapsed time.
//
// A test without any coverage data covers every mutant. A test with data
// covers the mutant only when the smallest statement enclosing the mutant
// was hit at least once.
func (mt *matcher) Match(mutant m.Mutant) m.ScopedTestSet {
	scope := m.ScopedTestSet{TestIDs: []string{}}
	fileName := mutant.FileName.Canonical()

	for _, test := range mt.tests {
		if test.Status == m.TestSkipped {
			continue
		}

		result, ok := mt.coverage[test.Name]
		if !ok || result == nil {
			scope.TestIDs = append(scope.TestIDs, test.Name)
			scope.TimeSpentMs += test.TimeSpentMs

			continue
		}

		hits, covered := coveredBy(result, fileName, mutant.Location)
		if !covered {
			continue
		}

		scope.TestIDs = append(scope.TestIDs, test.Name)
		scope.TimeSpentMs += test.TimeSpentMs
		scope.HitCount += hits
	}

	slog.Debug("Matched mutant to tests", "mutant", mutant.ID, "tests", len(scope.TestIDs), "timeSpentMs", scope.TimeSpentMs)

	return scope
}

// MatchAll annotates every mutant with its scoped test set, keeping input order.
func (mt *matcher) MatchAll(mutants []m.Mutant) []m.TestableMutant {
	testable := make([]m.TestableMutant, 0, len(mutants))

	for _, mutant := range mutants {
		testable = append(testable, m.TestableMutant{
			Mutant: mutant,
			Scope:  mt.Match(mutant),
		})
	}

	return testable
}

func coveredBy(result m.CoverageResult, fileName m.Path, location m.Location) (int64, bool) {
	file, ok := lookupFile(result, fileName)
	if !ok {
		return 0, false
	}

	id, ok := SmallestEnclosingStatement(file.Statements, location)
	if !ok {
		return 0, false
	}

	hits := file.Hits[id]

	return hits, hits > 0
}

func lookupFile(result m.CoverageResult, fileName m.Path) (m.FileCoverage, bool) {
	if file, ok := result[fileName]; ok {
		return file, true
	}

	for path, file := range result {
		if path.Canonical() == fileName {
			return file, true
		}
	}

	return m.FileCoverage{}, false
}

// SmallestEnclosingStatement returns the id of the tightest statement that
// fully encloses location: fewest lines first, then narrowest columns. Exact
// geometric ties fall back to the earlier start, then the lower id, so the
// choice never depends on map iteration order.
func SmallestEnclosingStatement(statements m.StatementMap, location m.Location) (string, bool) {
	ids := make([]string, 0, len(statements))

	for id, statement := range statements {
		if statement.Encloses(location) {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return "", false
	}

	sort.Slice(ids, func(i, j int) bool {
		return smaller(statements[ids[i]], ids[i], statements[ids[j]], ids[j])
	})

	return ids[0], true
}

func smaller(a m.Location, aID string, b m.Location, bID string) bool {
	if a.LineSpan() != b.LineSpan() {
		return a.LineSpan() < b.LineSpan()
	}

	// (a.start - b.start) + (b.end - a.end) > 0 means a is inside b's columns.
	if margin := (a.Start.Column - b.Start.Column) + (b.End.Column - a.End.Column); margin != 0 {
		return margin > 0
	}

	if a.Start != b.Start {
		return a.Start.Before(b.Start)
	}

	return aID < bID
}
