package predictor

import (
	"fmt"
	"math"
	"sort"
)

// ProbabilityMatrix maps (team1, team2) to team1's win probability in
// percent, rounded to two decimals. Diagonal entries do not exist; looking
// one up is a domain error at the query boundary.
type ProbabilityMatrix map[string]map[string]float64

// BuildMatrix derives the full pairwise matrix from strength scores. The
// output covers exactly the input team set: every ordered pair of distinct
// teams has an entry, and nothing else does. Consumers rely on that
// completeness when validating queried team names.
func BuildMatrix(scores map[string]TeamScore) ProbabilityMatrix {
	matrix := make(ProbabilityMatrix, len(scores))
	for a, sa := range scores {
		row := make(map[string]float64, len(scores)-1)
		for b, sb := range scores {
			if a == b {
				continue
			}
			p := sa.Strength / (sa.Strength + sb.Strength) * 100
			row[b] = math.Round(p*100) / 100
		}
		matrix[a] = row
	}
	return matrix
}

// Teams returns the matrix's team set, sorted for stable output.
func (m ProbabilityMatrix) Teams() []string {
	teams := make([]string, 0, len(m))
	for t := range m {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// Has reports whether the team is part of the matrix.
func (m ProbabilityMatrix) Has(team string) bool {
	_, ok := m[team]
	return ok
}

// Probability returns team1's win probability against team2.
func (m ProbabilityMatrix) Probability(team1, team2 string) (float64, error) {
	if team1 == team2 {
		return 0, ErrSameTeam
	}
	for _, t := range []string{team1, team2} {
		if !m.Has(t) {
			return 0, &UnknownTeamError{Name: t, ValidTeams: m.Teams()}
		}
	}
	p, ok := m[team1][team2]
	if !ok {
		// Builder guarantees completeness over the team set.
		return 0, fmt.Errorf("pair (%s, %s): %w", team1, team2, ErrUncomputable)
	}
	return p, nil
}
