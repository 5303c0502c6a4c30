package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// ErrInvalidPlan wraps every plan validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// PlanStore loads the mutant plan produced by a mutation generator.
type PlanStore interface {
	LoadPlan(path m.Path) (m.Plan, error)
}

// LocalPlanStore reads plans from YAML or JSON files.
type LocalPlanStore struct{}

// NewPlanStore constructs a LocalPlanStore.
func NewPlanStore() *LocalPlanStore {
	return &LocalPlanStore{}
}

// LoadPlan parses and validates the plan at path. A relative project root is
// resolved against the plan's directory.
func (s *LocalPlanStore) LoadPlan(path m.Path) (m.Plan, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("Failed to read plan", "path", path, "error", err)
		return m.Plan{}, fmt.Errorf("read plan: %w", err)
	}

	var plan m.Plan

	if strings.EqualFold(filepath.Ext(string(path)), ".json") {
		err = sonic.Unmarshal(data, &plan)
	} else {
		err = yaml.Unmarshal(data, &plan)
	}

	if err != nil {
		slog.Error("Failed to parse plan", "path", path, "error", err)
		return m.Plan{}, fmt.Errorf("parse plan %s: %w", path, err)
	}

	if plan.ProjectRoot == "" {
		plan.ProjectRoot = "."
	}

	if !filepath.IsAbs(string(plan.ProjectRoot)) {
		plan.ProjectRoot = m.Path(filepath.Join(filepath.Dir(string(path)), string(plan.ProjectRoot)))
	}

	if err := ValidatePlan(plan); err != nil {
		return m.Plan{}, err
	}

	return plan, nil
}

// ValidatePlan checks mutant identities and ranges.
func ValidatePlan(plan m.Plan) error {
	seen := make(map[string]struct{}, len(plan.Mutants))

	for i, mutant := range plan.Mutants {
		switch {
		case mutant.ID == "":
			return fmt.Errorf("%w: mutant #%d has no id", ErrInvalidPlan, i)
		case mutant.FileName == "":
			return fmt.Errorf("%w: mutant %s has no file name", ErrInvalidPlan, mutant.ID)
		case mutant.Range[0] < 0 || mutant.Range[1] < mutant.Range[0]:
			return fmt.Errorf("%w: mutant %s has range %v", ErrInvalidPlan, mutant.ID, mutant.Range)
		case mutant.Location.End.Before(mutant.Location.Start):
			return fmt.Errorf("%w: mutant %s ends before it starts", ErrInvalidPlan, mutant.ID)
		}

		if _, dup := seen[mutant.ID]; dup {
			return fmt.Errorf("%w: duplicate mutant id %s", ErrInvalidPlan, mutant.ID)
		}

		seen[mutant.ID] = struct{}{}
	}

	return nil
}
