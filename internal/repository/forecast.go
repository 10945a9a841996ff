package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dugout/prediction/internal/models"
	"dugout/prediction/internal/predictor"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// ErrPersistence wraps any failure inside the forecast transaction. The
// transaction rolls back entirely, so the previously persisted state is
// untouched whenever this is returned.
var ErrPersistence = errors.New("failed to persist forecast")

// ProbabilityRepository handles win_probability database operations
type ProbabilityRepository struct {
	db *Database
}

// RankingRepository handles ranking_predict database operations
type RankingRepository struct {
	db *Database
}

// SaveForecast makes one refresh's (matrix, ranking) pair durable in a
// single transaction: the current day's ranking batch is replaced whole
// (rank is batch-relative, merging rows makes no sense) and each matrix
// pair is updated in place or inserted. Earlier days' ranking batches stay
// as history; matrix rows keep their ids across refreshes.
func (db *Database) SaveForecast(ctx context.Context, matrix predictor.ProbabilityMatrix, ranking []predictor.RankingEntry, asOf time.Time) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	if err := replaceRankingBatch(ctx, tx, ranking, asOf); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	upserted := 0
	for _, team1 := range matrix.Teams() {
		for _, team2 := range matrix.Teams() {
			prob, ok := matrix[team1][team2]
			if !ok {
				continue
			}
			if err := upsertProbability(ctx, tx, team1, team2, prob, asOf); err != nil {
				return fmt.Errorf("%w: pair (%s, %s): %v", ErrPersistence, team1, team2, err)
			}
			upserted++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrPersistence, err)
	}

	log.Info().
		Int("ranking_rows", len(ranking)).
		Int("matrix_rows", upserted).
		Time("as_of", asOf).
		Msg("Forecast persisted")

	return nil
}

// replaceRankingBatch deletes the asOf day's batch and inserts the new one.
func replaceRankingBatch(ctx context.Context, tx pgx.Tx, ranking []predictor.RankingEntry, asOf time.Time) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM ranking_predict WHERE created_date::date = $1::date`,
		asOf,
	); err != nil {
		return fmt.Errorf("deleting current ranking batch: %w", err)
	}

	for _, entry := range ranking {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ranking_predict (team, rank, score, created_date)
			VALUES ($1, $2, $3, $4)
		`, entry.Team, entry.Rank, entry.Differential, asOf); err != nil {
			return fmt.Errorf("inserting ranking row for %q: %w", entry.Team, err)
		}
	}

	return nil
}

// upsertProbability looks the pair's row up and updates it in place, or
// inserts when absent. The explicit select keeps the row id stable for
// consumers polling row history by id.
func upsertProbability(ctx context.Context, tx pgx.Tx, team1, team2 string, prob float64, asOf time.Time) error {
	var id int
	err := tx.QueryRow(ctx,
		`SELECT id FROM win_probability WHERE team1 = $1 AND team2 = $2`,
		team1, team2,
	).Scan(&id)

	if err == pgx.ErrNoRows {
		_, err = tx.Exec(ctx, `
			INSERT INTO win_probability (team1, team2, probability, created_date)
			VALUES ($1, $2, $3, $4)
		`, team1, team2, prob, asOf)
		if err != nil {
			return fmt.Errorf("inserting probability: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up probability row: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE win_probability SET probability = $1, created_date = $2 WHERE id = $3`,
		prob, asOf, id,
	)
	if err != nil {
		return fmt.Errorf("updating probability row %d: %w", id, err)
	}
	return nil
}

// ListAll retrieves every persisted probability row, ordered for stable
// output. Serves the historical endpoint directly, independent of the
// in-memory snapshot.
func (r *ProbabilityRepository) ListAll(ctx context.Context) ([]models.WinProbability, error) {
	query := `
		SELECT id, team1, team2, probability, created_date
		FROM win_probability
		ORDER BY team1, team2
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list probabilities: %w", err)
	}
	defer rows.Close()

	var probs []models.WinProbability
	for rows.Next() {
		var p models.WinProbability
		if err := rows.Scan(&p.ID, &p.Team1, &p.Team2, &p.Probability, &p.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan probability: %w", err)
		}
		probs = append(probs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating probabilities: %w", err)
	}

	return probs, nil
}

// GetLatestBatch retrieves the most recent ranking batch ordered by rank
// ascending.
func (r *RankingRepository) GetLatestBatch(ctx context.Context) ([]models.RankingPredict, error) {
	query := `
		SELECT id, team, rank, score, created_date
		FROM ranking_predict
		WHERE created_date = (SELECT MAX(created_date) FROM ranking_predict)
		ORDER BY rank ASC, team ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest ranking batch: %w", err)
	}
	defer rows.Close()

	var entries []models.RankingPredict
	for rows.Next() {
		var e models.RankingPredict
		if err := rows.Scan(&e.ID, &e.Team, &e.Rank, &e.Score, &e.CreatedDate); err != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranking rows: %w", err)
	}

	return entries, nil
}
