package repository

import (
	"context"
	"fmt"

	"dugout/prediction/internal/models"
)

// RecordRepository reads the per-player season record tables. The
// acquisition service writes them; this service treats them as input only.
type RecordRepository struct {
	db *Database
}

// GetHitterRecords retrieves all hitter rows for a season.
func (r *RecordRepository) GetHitterRecords(ctx context.Context, season int) ([]models.HitterRecord, error) {
	query := `
		SELECT id, player, team, year, ops_predict, created_date
		FROM hitter_record
		WHERE year = $1
		ORDER BY team, player
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get hitter records: %w", err)
	}
	defer rows.Close()

	var records []models.HitterRecord
	for rows.Next() {
		var rec models.HitterRecord
		if err := rows.Scan(&rec.ID, &rec.Player, &rec.Team, &rec.Year, &rec.OPSPredict, &rec.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan hitter record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hitter records: %w", err)
	}

	return records, nil
}

// GetPitcherRecords retrieves all pitcher rows for a season.
func (r *RecordRepository) GetPitcherRecords(ctx context.Context, season int) ([]models.PitcherRecord, error) {
	query := `
		SELECT id, player, team, year, whip_predict, created_date
		FROM pitcher_record
		WHERE year = $1
		ORDER BY team, player
	`

	rows, err := r.db.Pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to get pitcher records: %w", err)
	}
	defer rows.Close()

	var records []models.PitcherRecord
	for rows.Next() {
		var rec models.PitcherRecord
		if err := rows.Scan(&rec.ID, &rec.Player, &rec.Team, &rec.Year, &rec.WHIPPredict, &rec.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan pitcher record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pitcher records: %w", err)
	}

	return records, nil
}
