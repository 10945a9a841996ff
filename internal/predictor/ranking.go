package predictor

import (
	"sort"
	"time"
)

// RankingEntry is one team's position in a ranking batch. All entries of a
// batch share the same AsOf timestamp.
type RankingEntry struct {
	Team         string
	Rank         int
	Differential float64
	AsOf         time.Time
}

// ComputeRanking orders teams by differential descending and assigns
// competition ranks: tied teams share a rank and the next distinct value's
// rank equals the count of strictly-better-or-equal entries plus one, so
// differentials [5, 5, 3] rank [1, 1, 3].
func ComputeRanking(scores map[string]TeamScore, asOf time.Time) []RankingEntry {
	entries := make([]RankingEntry, 0, len(scores))
	for _, s := range scores {
		entries = append(entries, RankingEntry{
			Team:         s.Team,
			Differential: s.Differential,
			AsOf:         asOf,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Differential != entries[j].Differential {
			return entries[i].Differential > entries[j].Differential
		}
		return entries[i].Team < entries[j].Team
	})

	for i := range entries {
		if i > 0 && entries[i].Differential == entries[i-1].Differential {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}

	return entries
}
