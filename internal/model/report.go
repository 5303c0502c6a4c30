package model

import "time"

// Report is the persisted outcome of one engine run.
type Report struct {
	RunID       string         `json:"runId"`
	ProjectRoot Path           `json:"projectRoot"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
	Baseline    RunSummary     `json:"baseline"`
	Score       Score          `json:"score"`
	Mutants     []MutantResult `json:"mutants"`
}

// RunSummary condenses the baseline run.
type RunSummary struct {
	Tests       int   `json:"tests"`
	Skipped     int   `json:"skipped"`
	TimeSpentMs int64 `json:"timeSpentMs"`
}

// Summarize condenses r.
func (r RunResult) Summarize() RunSummary {
	var summary RunSummary

	for _, test := range r.Tests {
		summary.Tests++
		summary.TimeSpentMs += test.TimeSpentMs

		if test.Status == TestSkipped {
			summary.Skipped++
		}
	}

	return summary
}

// CountByStatus tallies results per status.
func CountByStatus(results []MutantResult) map[MutantStatus]int {
	counts := make(map[MutantStatus]int, len(mutantStatusNames))

	for _, result := range results {
		counts[result.Status]++
	}

	return counts
}

// Score summarizes how many mutants the test suite detected.
type Score struct {
	// Detected counts killed and timed out mutants.
	Detected   int `json:"detected"`
	Survived   int `json:"survived"`
	NoCoverage int `json:"noCoverage"`
	Errors     int `json:"errors"`
}

// Add counts result.
func (s *Score) Add(result MutantResult) {
	switch result.Status {
	case Killed, TimedOut:
		s.Detected++
	case Survived:
		s.Survived++
	case NoCoverage:
		s.NoCoverage++
	case Error:
		s.Errors++
	}
}

// Total is the detected share of all valid mutants, in percent. Errors are
// not valid mutants. With nothing to measure the score is 100.
func (s Score) Total() float64 {
	return percent(s.Detected, s.Detected+s.Survived+s.NoCoverage)
}

// Covered is the detected share of the mutants some test reaches, in percent.
func (s Score) Covered() float64 {
	return percent(s.Detected, s.Detected+s.Survived)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 100
	}

	return float64(part) / float64(whole) * 100
}
