package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/mutexec/internal/model"
	"gooze.dev/pkg/mutexec/pkg/filespill"
)

type errSpill[T any] struct {
	err error
}

func (e errSpill[T]) Len() uint64                                    { return 0 }
func (e errSpill[T]) Path() string                                   { return "" }
func (e errSpill[T]) Append(_ T) error                               { return nil }
func (e errSpill[T]) Range(_ func(index uint64, item T) error) error { return e.err }
func (e errSpill[T]) Close() error                                   { return nil }

func TestMutationScoreFromSpill(t *testing.T) {
	spill, err := filespill.New[m.MutantResult](t.TempDir())
	require.NoError(t, err)
	defer spill.Close()

	for _, status := range []m.MutantStatus{m.Killed, m.Survived, m.TimedOut, m.Error, m.NoCoverage} {
		require.NoError(t, spill.Append(m.MutantResult{ID: status.String(), Status: status}))
	}

	score, err := mutationScoreFromSpill(spill)
	require.NoError(t, err)

	require.Equal(t, m.Score{Detected: 2, Survived: 1, NoCoverage: 1, Errors: 1}, score)
	require.InDelta(t, 50.0, score.Total(), 1e-9)
}

func TestMutationScoreFromSpill_EmptySpillIs100(t *testing.T) {
	spill, err := filespill.New[m.MutantResult](t.TempDir())
	require.NoError(t, err)
	defer spill.Close()

	score, err := mutationScoreFromSpill(spill)
	require.NoError(t, err)

	require.Equal(t, 100.0, score.Total())
}

func TestMutationScoreFromSpill_RangeError(t *testing.T) {
	_, err := mutationScoreFromSpill(errSpill[m.MutantResult]{err: errors.New("corrupt spill")})
	require.EqualError(t, err, "corrupt spill")
}
