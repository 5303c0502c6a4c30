package domain

import (
	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/pkg/filespill"
)

func mutationScoreFromSpill(results filespill.Spill[m.MutantResult]) (m.Score, error) {
	var score m.Score

	err := results.Range(func(_ uint64, result m.MutantResult) error {
		score.Add(result)
		return nil
	})
	if err != nil {
		return m.Score{}, err
	}

	return score, nil
}
