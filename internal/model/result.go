package model

import "fmt"

// TestStatus is the outcome of a single test.
type TestStatus int

const (
	// TestSuccess indicates the test passed.
	TestSuccess TestStatus = iota
	// TestFailed indicates the test failed.
	TestFailed
	// TestSkipped indicates the test did not run.
	TestSkipped
)

var testStatusNames = []string{"success", "failed", "skipped"}

func (t TestStatus) String() string {
	if t >= 0 && int(t) < len(testStatusNames) {
		return testStatusNames[t]
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t TestStatus) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TestStatus) UnmarshalText(text []byte) error {
	idx, err := parseEnum(string(text), testStatusNames)
	if err != nil {
		return fmt.Errorf("test status: %w", err)
	}

	*t = TestStatus(idx)

	return nil
}

// TestResult is the result of one test in a run.
type TestResult struct {
	Name            string     `json:"name"`
	Status          TestStatus `json:"status"`
	TimeSpentMs     int64      `json:"timeSpentMs"`
	FailureMessages []string   `json:"failureMessages,omitempty"`
}

// RunStatus is the overall status of one test run.
type RunStatus int

const (
	// RunComplete means the run finished and every test reported.
	RunComplete RunStatus = iota
	// RunTimeout means the run did not finish within its budget.
	RunTimeout
	// RunError means the run could not be executed.
	RunError
)

var runStatusNames = []string{"complete", "timeout", "error"}

func (r RunStatus) String() string {
	if r >= 0 && int(r) < len(runStatusNames) {
		return runStatusNames[r]
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (r RunStatus) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RunStatus) UnmarshalText(text []byte) error {
	idx, err := parseEnum(string(text), runStatusNames)
	if err != nil {
		return fmt.Errorf("run status: %w", err)
	}

	*r = RunStatus(idx)

	return nil
}

// RunResult aggregates the tests of one runner invocation.
type RunResult struct {
	Status        RunStatus      `json:"status"`
	Tests         []TestResult   `json:"tests"`
	ErrorMessages []string       `json:"errorMessages,omitempty"`
	Coverage      CoverageByTest `json:"coverage,omitempty"`
}

// FailedTests returns the tests that failed, in run order.
func (r RunResult) FailedTests() []TestResult {
	var failed []TestResult

	for _, test := range r.Tests {
		if test.Status == TestFailed {
			failed = append(failed, test)
		}
	}

	return failed
}

// RanTestNames returns the names of the tests that were not skipped.
func (r RunResult) RanTestNames() []string {
	names := make([]string, 0, len(r.Tests))

	for _, test := range r.Tests {
		if test.Status != TestSkipped {
			names = append(names, test.Name)
		}
	}

	return names
}

// MutantStatus is the terminal classification of a mutant.
type MutantStatus int

const (
	// Killed indicates the mutation was detected by tests.
	Killed MutantStatus = iota
	// Survived indicates the mutation was not detected by tests.
	Survived
	// TimedOut indicates the tests did not finish while the mutant was active.
	TimedOut
	// NoCoverage indicates no test reaches the mutant, so it was never run.
	NoCoverage
	// Error indicates the mutant could not be tested.
	Error
)

var mutantStatusNames = []string{"killed", "survived", "timedOut", "noCoverage", "error"}

func (s MutantStatus) String() string {
	if s >= 0 && int(s) < len(mutantStatusNames) {
		return mutantStatusNames[s]
	}

	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s MutantStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *MutantStatus) UnmarshalText(text []byte) error {
	idx, err := parseEnum(string(text), mutantStatusNames)
	if err != nil {
		return fmt.Errorf("mutant status: %w", err)
	}

	*s = MutantStatus(idx)

	return nil
}

// MutantResult is the terminal record of one mutant, consumed by reporters.
type MutantResult struct {
	ID             string       `json:"id"`
	FileName       Path         `json:"fileName"`
	MutatorName    string       `json:"mutatorName"`
	Location       Location     `json:"location"`
	Range          [2]int       `json:"range"`
	Original       string       `json:"original"`
	Replacement    string       `json:"replacement"`
	Status         MutantStatus `json:"status"`
	StatusReason   string       `json:"statusReason,omitempty"`
	TestsRan       []string     `json:"testsRan,omitempty"`
	FailureMessage string       `json:"failureMessage,omitempty"`
	TimeSpentMs    int64        `json:"timeSpentMs"`
}

// NewMutantResult copies the identity of mutant into a result with status.
func NewMutantResult(mutant Mutant, status MutantStatus) MutantResult {
	return MutantResult{
		ID:          mutant.ID,
		FileName:    mutant.FileName,
		MutatorName: mutant.MutatorName,
		Location:    mutant.Location,
		Range:       mutant.Range,
		Original:    mutant.Original,
		Replacement: mutant.Replacement,
		Status:      status,
	}
}

func parseEnum(value string, names []string) (int, error) {
	for i, name := range names {
		if name == value {
			return i, nil
		}
	}

	return 0, fmt.Errorf("unknown value %q", value)
}
