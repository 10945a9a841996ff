// Command manualrefresh runs one prediction refresh against the database
// and exits. Operator tool for forcing fresh numbers outside the daily
// schedule without going through the HTTP API.
package main

import (
	"context"
	"strconv"

	"dugout/prediction/internal/cache"
	"dugout/prediction/internal/config"
	"dugout/prediction/internal/repository"
	"dugout/prediction/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Validate database connectivity before doing any work
	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	snapshots := cache.NewManager(cache.Policy{
		Validity:     cfg.CacheValidity,
		ForcedWindow: cfg.ForcedWindow,
	})
	svc := service.New(db.Records, db, db.Probabilities, db.Rankings, snapshots, nil, service.Options{
		Season: cfg.Season,
	})

	log.Info().Int("season", cfg.Season).Msg("Running manual refresh")
	if err := svc.ForceRefresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("Manual refresh failed")
	}

	snap := snapshots.Current()
	log.Info().
		Int("teams", len(snap.Matrix)).
		Time("as_of", snap.LastUpdate).
		Msg("Manual refresh complete")
}
