package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutexec/internal/model"
)

const yamlPlan = `projectRoot: project
mutants:
  - id: "1"
    fileName: calc.go
    mutatorName: ArithmeticOperator
    range: [45, 46]
    location:
      start: {line: 4, column: 10}
      end: {line: 4, column: 11}
    original: "+"
    replacement: "-"
`

const jsonPlan = `{
  "mutants": [
    {
      "id": "1",
      "fileName": "calc.go",
      "mutatorName": "ArithmeticOperator",
      "range": [45, 46],
      "location": {"start": {"line": 4, "column": 10}, "end": {"line": 4, "column": 11}},
      "original": "+",
      "replacement": "-"
    }
  ]
}`

func writePlan(t *testing.T, name, content string) m.Path {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return m.Path(path)
}

func TestLocalPlanStore_LoadPlan(t *testing.T) {
	store := NewPlanStore()

	for _, tc := range []struct {
		name    string
		file    string
		content string
		root    string
	}{
		{name: "yaml", file: "plan.yaml", content: yamlPlan, root: "project"},
		{name: "json", file: "plan.json", content: jsonPlan, root: "."},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := writePlan(t, tc.file, tc.content)

			plan, err := store.LoadPlan(path)
			require.NoError(t, err)

			assert.Equal(t, m.Path(filepath.Join(filepath.Dir(string(path)), tc.root)), plan.ProjectRoot)
			require.Len(t, plan.Mutants, 1)

			mutant := plan.Mutants[0]
			assert.Equal(t, "1", mutant.ID)
			assert.Equal(t, m.Path("calc.go"), mutant.FileName)
			assert.Equal(t, [2]int{45, 46}, mutant.Range)
			assert.Equal(t, m.Position{Line: 4, Column: 10}, mutant.Location.Start)
			assert.Equal(t, "-", mutant.Replacement)
		})
	}
}

func TestLocalPlanStore_LoadPlanErrors(t *testing.T) {
	store := NewPlanStore()

	_, err := store.LoadPlan(m.Path(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)

	_, err = store.LoadPlan(writePlan(t, "plan.json", "{not json"))
	require.Error(t, err)
}

func TestValidatePlan(t *testing.T) {
	valid := m.Mutant{ID: "1", FileName: "a.go", Range: [2]int{1, 2}}

	tests := []struct {
		name    string
		mutants []m.Mutant
		wantErr bool
	}{
		{name: "valid", mutants: []m.Mutant{valid}},
		{name: "missing id", mutants: []m.Mutant{{FileName: "a.go"}}, wantErr: true},
		{name: "missing file", mutants: []m.Mutant{{ID: "1"}}, wantErr: true},
		{name: "inverted range", mutants: []m.Mutant{{ID: "1", FileName: "a.go", Range: [2]int{5, 2}}}, wantErr: true},
		{name: "duplicate id", mutants: []m.Mutant{valid, valid}, wantErr: true},
		{
			name: "location ends before start",
			mutants: []m.Mutant{{ID: "1", FileName: "a.go", Location: m.Location{
				Start: m.Position{Line: 3},
				End:   m.Position{Line: 2},
			}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlan(m.Plan{Mutants: tt.mutants})
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPlan), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
