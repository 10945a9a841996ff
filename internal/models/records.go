package models

import (
	"time"
)

// HitterRecord is one player's current-season batting row from hitter_record.
// The acquisition service owns writes to this table; we only read it.
type HitterRecord struct {
	ID          int       `db:"id"`
	Player      string    `db:"player"`
	Team        string    `db:"team"`
	Year        int       `db:"year"`
	OPSPredict  float64   `db:"ops_predict"`
	CreatedDate time.Time `db:"created_date"`
}

// PitcherRecord is one player's current-season pitching row from pitcher_record.
type PitcherRecord struct {
	ID          int       `db:"id"`
	Player      string    `db:"player"`
	Team        string    `db:"team"`
	Year        int       `db:"year"`
	WHIPPredict float64   `db:"whip_predict"`
	CreatedDate time.Time `db:"created_date"`
}
