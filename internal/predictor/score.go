package predictor

import (
	"fmt"
	"math"
)

// TeamScore is one team's comparable strength for a single refresh.
type TeamScore struct {
	Team string
	// Differential is offense index minus pitch index; the ranking is a
	// descending order over this value.
	Differential float64
	// Strength is the offset-adjusted differential, strictly positive, and
	// the sole input to the probability formula.
	Strength float64
}

// ComputeScores turns per-team offense/pitch indices into strength scores.
// Both maps must cover the same team set (ErrTeamSetMismatch otherwise).
//
// offset = |min differential| + 0.1, so every strength is strictly positive
// and the weakest team lands at exactly 0.1. The probability formula
// divides by a sum of two strengths and must never see zero or a negative.
func ComputeScores(offense, pitch map[string]float64) (map[string]TeamScore, error) {
	if len(offense) != len(pitch) {
		return nil, fmt.Errorf("%d offense teams vs %d pitching teams: %w",
			len(offense), len(pitch), ErrTeamSetMismatch)
	}
	for team := range offense {
		if _, ok := pitch[team]; !ok {
			return nil, fmt.Errorf("team %q has offense data but no pitching data: %w",
				team, ErrTeamSetMismatch)
		}
	}

	minDiff := math.Inf(1)
	diffs := make(map[string]float64, len(offense))
	for team, ops := range offense {
		d := ops - pitch[team]
		diffs[team] = d
		if d < minDiff {
			minDiff = d
		}
	}

	offset := math.Abs(minDiff) + 0.1

	scores := make(map[string]TeamScore, len(diffs))
	for team, d := range diffs {
		s := TeamScore{
			Team:         team,
			Differential: d,
			Strength:     d + offset,
		}
		if s.Strength <= 0 {
			// Broken offset math, not bad input. Fail loudly.
			return nil, fmt.Errorf("invariant violation: non-positive strength %.4f for team %q", s.Strength, team)
		}
		scores[team] = s
	}

	return scores, nil
}
