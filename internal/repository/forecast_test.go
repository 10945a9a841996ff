//go:build integration

package repository

import (
	"testing"
	"time"

	"dugout/prediction/internal/predictor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForecast(asOf time.Time) (predictor.ProbabilityMatrix, []predictor.RankingEntry) {
	matrix := predictor.ProbabilityMatrix{
		"Bears": {"Lions": 60.00, "Twins": 85.71},
		"Lions": {"Bears": 40.00, "Twins": 80.00},
		"Twins": {"Bears": 14.29, "Lions": 20.00},
	}
	ranking := []predictor.RankingEntry{
		{Team: "Bears", Rank: 1, Differential: 0.30, AsOf: asOf},
		{Team: "Lions", Rank: 2, Differential: 0.10, AsOf: asOf},
		{Team: "Twins", Rank: 3, Differential: -0.20, AsOf: asOf},
	}
	return matrix, ranking
}

func TestSaveForecast_RoundTrip(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	cleanTables(t, ctx, db)

	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	matrix, ranking := testForecast(asOf)

	err := db.SaveForecast(ctx, matrix, ranking, asOf)
	require.NoError(t, err, "Should persist forecast")

	// Every ordered pair lands as its own row
	probs, err := db.Probabilities.ListAll(ctx)
	require.NoError(t, err, "Should list probabilities")
	require.Len(t, probs, 6, "Three teams should produce six ordered pairs")

	// Ordered by (team1, team2); first row is Bears vs Lions
	assert.Equal(t, "Bears", probs[0].Team1)
	assert.Equal(t, "Lions", probs[0].Team2)
	assert.Equal(t, 60.00, probs[0].Probability)

	batch, err := db.Rankings.GetLatestBatch(ctx)
	require.NoError(t, err, "Should read ranking batch")
	require.Len(t, batch, 3)
	assert.Equal(t, "Bears", batch[0].Team)
	assert.Equal(t, 1, batch[0].Rank)
	assert.Equal(t, 0.30, batch[0].Score)
	assert.Equal(t, 3, batch[2].Rank)
}

func TestSaveForecast_SecondRunKeepsRowIDs(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	cleanTables(t, ctx, db)

	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	matrix, ranking := testForecast(asOf)
	require.NoError(t, db.SaveForecast(ctx, matrix, ranking, asOf))

	first, err := db.Probabilities.ListAll(ctx)
	require.NoError(t, err)

	// Same day, new numbers: rows are updated in place, not recreated
	matrix["Bears"]["Lions"] = 55.00
	matrix["Lions"]["Bears"] = 45.00
	require.NoError(t, db.SaveForecast(ctx, matrix, ranking, asOf))

	second, err := db.Probabilities.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, second, len(first), "Repeated save must not grow the matrix table")

	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID, "Row id for (%s, %s) should survive the refresh", first[i].Team1, first[i].Team2)
	}
	assert.Equal(t, 55.00, second[0].Probability, "Updated probability should be visible")
}

func TestSaveForecast_SameDayReplacesRankingBatch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	cleanTables(t, ctx, db)

	asOf := time.Date(2025, 6, 1, 0, 1, 0, 0, time.UTC)
	matrix, ranking := testForecast(asOf)
	require.NoError(t, db.SaveForecast(ctx, matrix, ranking, asOf))

	// A second refresh later the same day reorders the ranking
	later := asOf.Add(2 * time.Hour)
	ranking2 := []predictor.RankingEntry{
		{Team: "Lions", Rank: 1, Differential: 0.40, AsOf: later},
		{Team: "Bears", Rank: 2, Differential: 0.30, AsOf: later},
		{Team: "Twins", Rank: 3, Differential: -0.20, AsOf: later},
	}
	require.NoError(t, db.SaveForecast(ctx, matrix, ranking2, later))

	var count int
	err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ranking_predict`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "Same-day refresh should replace the batch, not append")

	batch, err := db.Rankings.GetLatestBatch(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, "Lions", batch[0].Team, "Latest batch should reflect the second run")
}

func TestSaveForecast_KeepsEarlierDaysAsHistory(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	cleanTables(t, ctx, db)

	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	matrix, ranking := testForecast(day1)
	require.NoError(t, db.SaveForecast(ctx, matrix, ranking, day1))

	day2 := day1.AddDate(0, 0, 1)
	_, ranking2 := testForecast(day2)
	require.NoError(t, db.SaveForecast(ctx, matrix, ranking2, day2))

	var count int
	err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ranking_predict`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 6, count, "Each day should keep its own ranking batch")

	batch, err := db.Rankings.GetLatestBatch(ctx)
	require.NoError(t, err)
	require.Len(t, batch, 3, "Latest batch should only contain day two")
	assert.True(t, batch[0].CreatedDate.Equal(day2) || batch[0].CreatedDate.After(day1), "Latest batch should be day two's")
}

func TestGetLatestBatch_Empty(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	cleanTables(t, ctx, db)

	batch, err := db.Rankings.GetLatestBatch(ctx)
	require.NoError(t, err, "Empty table should not be an error")
	assert.Empty(t, batch)
}
