package model

// StatementMap maps a statement id to its source location.
type StatementMap map[string]Location

// FileCoverage is the coverage of one source file during one test.
type FileCoverage struct {
	Statements StatementMap     `json:"statements"`
	Hits       map[string]int64 `json:"hits"`
}

// CoverageResult holds the coverage of one test execution, per source file.
type CoverageResult map[Path]FileCoverage

// CoverageByTest indexes coverage by test id. A missing entry, or a nil
// CoverageResult, means no coverage data was captured for that test.
type CoverageByTest map[string]CoverageResult
