// Package scheduler drives the daily refresh. The cron trigger at local
// midnight shares the service's refresh gate with manual triggers and
// cache-driven reads, so a late or overlapping fire coalesces instead of
// starting a second run.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"dugout/prediction/internal/config"
	"dugout/prediction/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler manages the background refresh trigger.
type Scheduler struct {
	cfg  *config.Config
	svc  *service.Service
	cron *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, svc *service.Service) *Scheduler {
	return &Scheduler{
		cfg:  cfg,
		svc:  svc,
		cron: cron.New(),
	}
}

// Start registers the daily refresh job and starts the cron loop. The cron
// library fires late jobs as soon as it can, which covers the grace window
// just after midnight.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, func() {
		log.Info().Msg("Running scheduled refresh...")
		if err := s.svc.RefreshScheduled(ctx); err != nil {
			if errors.Is(err, service.ErrRefreshRunning) {
				log.Info().Msg("Scheduled refresh skipped, another refresh in flight")
				return
			}
			log.Error().Err(err).Msg("Scheduled refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.RefreshCron).
		Msg("Daily refresh scheduled")

	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}

	log.Info().Msg("Scheduler stopped")
}
