package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleScores() map[string]TeamScore {
	// The worked example: differentials {A: 0.30, B: 0.10, C: -0.20},
	// offset 0.30, strengths {A: 0.60, B: 0.40, C: 0.10}.
	return map[string]TeamScore{
		"A": {Team: "A", Differential: 0.30, Strength: 0.60},
		"B": {Team: "B", Differential: 0.10, Strength: 0.40},
		"C": {Team: "C", Differential: -0.20, Strength: 0.10},
	}
}

func TestBuildMatrix_WorkedExample(t *testing.T) {
	m := BuildMatrix(exampleScores())

	pAB, err := m.Probability("A", "B")
	require.NoError(t, err)
	assert.Equal(t, 60.00, pAB)

	pBA, err := m.Probability("B", "A")
	require.NoError(t, err)
	assert.Equal(t, 40.00, pBA)

	pAC, err := m.Probability("A", "C")
	require.NoError(t, err)
	assert.Equal(t, 85.71, pAC)
}

func TestBuildMatrix_Symmetry(t *testing.T) {
	m := BuildMatrix(exampleScores())

	for _, a := range m.Teams() {
		for _, b := range m.Teams() {
			if a == b {
				continue
			}
			pab, err := m.Probability(a, b)
			require.NoError(t, err)
			pba, err := m.Probability(b, a)
			require.NoError(t, err)
			assert.InDelta(t, 100.0, pab+pba, 0.01, "p(%s,%s)+p(%s,%s)", a, b, b, a)
		}
	}
}

func TestBuildMatrix_Completeness(t *testing.T) {
	m := BuildMatrix(exampleScores())

	assert.Equal(t, []string{"A", "B", "C"}, m.Teams())
	for a, row := range m {
		assert.Len(t, row, 2, "row %s must cover every other team", a)
		_, hasDiagonal := row[a]
		assert.False(t, hasDiagonal, "no matrix entry for (%s,%s)", a, a)
	}
}

func TestMatrix_Probability_SameTeam(t *testing.T) {
	m := BuildMatrix(exampleScores())

	_, err := m.Probability("A", "A")
	assert.ErrorIs(t, err, ErrSameTeam)
}

func TestMatrix_Probability_UnknownTeam(t *testing.T) {
	m := BuildMatrix(exampleScores())

	_, err := m.Probability("A", "Doosan")
	assert.ErrorIs(t, err, ErrUnknownTeam)

	var unknown *UnknownTeamError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Doosan", unknown.Name)
	assert.Equal(t, []string{"A", "B", "C"}, unknown.ValidTeams)

	_, err = m.Probability("Kiwoom", "A")
	assert.ErrorIs(t, err, ErrUnknownTeam)
}

func TestMatrix_Probability_Uncomputable(t *testing.T) {
	// A hole in the matrix is an invariant violation, surfaced as its own
	// error kind rather than an unknown-team rejection.
	m := ProbabilityMatrix{
		"A": {},
		"B": {"A": 50.0},
	}

	_, err := m.Probability("A", "B")
	assert.ErrorIs(t, err, ErrUncomputable)
}

func TestBuildMatrix_TwoTeams(t *testing.T) {
	m := BuildMatrix(map[string]TeamScore{
		"A": {Team: "A", Strength: 0.30},
		"B": {Team: "B", Strength: 0.10},
	})

	pAB, err := m.Probability("A", "B")
	require.NoError(t, err)
	assert.Equal(t, 75.00, pAB)
}
