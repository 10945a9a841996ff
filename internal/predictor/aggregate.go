package predictor

import (
	"fmt"

	"dugout/prediction/internal/models"
)

// AggregateSeasonIndexes reduces per-player records to per-team indices for
// the given season: the arithmetic mean of the predicted OPS across a
// team's hitters, and of the predicted WHIP across its pitchers.
//
// Returns ErrEmptyInput when either side has no rows for the season; a
// refresh cannot proceed with no data.
func AggregateSeasonIndexes(hitters []models.HitterRecord, pitchers []models.PitcherRecord, season int) (offense, pitch map[string]float64, err error) {
	offense = make(map[string]float64)
	pitch = make(map[string]float64)

	offSums := make(map[string]float64)
	offCounts := make(map[string]int)
	for _, h := range hitters {
		if h.Year != season {
			continue
		}
		offSums[h.Team] += h.OPSPredict
		offCounts[h.Team]++
	}

	pitSums := make(map[string]float64)
	pitCounts := make(map[string]int)
	for _, p := range pitchers {
		if p.Year != season {
			continue
		}
		pitSums[p.Team] += p.WHIPPredict
		pitCounts[p.Team]++
	}

	if len(offCounts) == 0 || len(pitCounts) == 0 {
		return nil, nil, fmt.Errorf("season %d: %w", season, ErrEmptyInput)
	}

	for team, sum := range offSums {
		offense[team] = sum / float64(offCounts[team])
	}
	for team, sum := range pitSums {
		pitch[team] = sum / float64(pitCounts[team])
	}

	return offense, pitch, nil
}
