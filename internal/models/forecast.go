package models

import (
	"time"
)

// WinProbability is one persisted pairwise probability row.
// Unique on (team1, team2); updated in place on refresh so the row id is
// stable across re-runs.
type WinProbability struct {
	ID          int       `db:"id"`
	Team1       string    `db:"team1"`
	Team2       string    `db:"team2"`
	Probability float64   `db:"probability"`
	CreatedDate time.Time `db:"created_date"`
}

// RankingPredict is one persisted ranking row. Unique on (team, created
// date); each refresh replaces the current day's batch and leaves earlier
// days as history.
type RankingPredict struct {
	ID          int       `db:"id"`
	Team        string    `db:"team"`
	Rank        int       `db:"rank"`
	Score       float64   `db:"score"`
	CreatedDate time.Time `db:"created_date"`
}
