package model

// Position is a point in a source file. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Before reports whether p is strictly before other.
func (p Position) Before(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Column < other.Column)
}

// Location is a source range from Start to End (inclusive of both ends).
type Location struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Encloses reports whether inner lies completely within l.
func (l Location) Encloses(inner Location) bool {
	return !inner.Start.Before(l.Start) && !l.End.Before(inner.End)
}

// LineSpan is the number of lines the location crosses beyond its first.
func (l Location) LineSpan() int {
	return l.End.Line - l.Start.Line
}

// ColumnSpan is the distance between the start and end column.
func (l Location) ColumnSpan() int {
	return l.End.Column - l.Start.Column
}

// Mutant is one candidate code change. It is created by the mutation
// generator and never modified by the engine.
type Mutant struct {
	ID          string   `json:"id" yaml:"id"`
	FileName    Path     `json:"fileName" yaml:"fileName"`
	MutatorName string   `json:"mutatorName" yaml:"mutatorName"`
	Range       [2]int   `json:"range" yaml:"range,flow"` // byte offsets [start, end)
	Location    Location `json:"location" yaml:"location"`
	Original    string   `json:"original" yaml:"original"`
	Replacement string   `json:"replacement" yaml:"replacement"`
}

// ScopedTestSet is the set of tests whose baseline coverage reaches a mutant.
type ScopedTestSet struct {
	// TestIDs keeps the order of the baseline run.
	TestIDs []string `json:"testIds"`
	// TimeSpentMs is the sum of the baseline elapsed time of TestIDs.
	TimeSpentMs int64 `json:"timeSpentMs"`
	// HitCount is the sum of the baseline hit counts of the statement
	// enclosing the mutant, over all covering tests that reported one.
	HitCount int64 `json:"hitCount"`
}

// Empty reports whether no test covers the mutant.
func (s ScopedTestSet) Empty() bool {
	return len(s.TestIDs) == 0
}

// TestableMutant is a mutant annotated with the tests that can detect it.
type TestableMutant struct {
	Mutant
	Scope ScopedTestSet
}
