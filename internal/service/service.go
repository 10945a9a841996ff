// Package service wires the prediction pipeline together: it reads season
// records, runs the aggregation/scoring/matrix/ranking chain, persists the
// result, and arbitrates the shared snapshot between concurrent readers and
// the single active refresh.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dugout/prediction/internal/cache"
	"dugout/prediction/internal/metrics"
	"dugout/prediction/internal/models"
	"dugout/prediction/internal/predictor"

	"github.com/rs/zerolog/log"
)

// Redis keys for the list-endpoint response cache.
const (
	historicalCacheKey = "dugout:historical"
	rankingCacheKey    = "dugout:ranking"
)

var (
	// ErrRefreshRunning is returned to a trigger that finds a refresh
	// already in flight. The trigger is coalesced, not queued.
	ErrRefreshRunning = errors.New("a refresh is already running")

	// ErrNotInitialized is returned to readers when no refresh has ever
	// succeeded and the one they waited on failed too.
	ErrNotInitialized = errors.New("prediction data not yet initialized")
)

// RecordSource supplies the per-player season records the aggregator
// consumes. Implemented by repository.RecordRepository.
type RecordSource interface {
	GetHitterRecords(ctx context.Context, season int) ([]models.HitterRecord, error)
	GetPitcherRecords(ctx context.Context, season int) ([]models.PitcherRecord, error)
}

// ForecastStore persists one refresh's output atomically. Implemented by
// repository.Database.
type ForecastStore interface {
	SaveForecast(ctx context.Context, matrix predictor.ProbabilityMatrix, ranking []predictor.RankingEntry, asOf time.Time) error
}

// ProbabilityLister reads persisted matrix rows. Implemented by
// repository.ProbabilityRepository.
type ProbabilityLister interface {
	ListAll(ctx context.Context) ([]models.WinProbability, error)
}

// RankingLister reads the latest persisted ranking batch. Implemented by
// repository.RankingRepository.
type RankingLister interface {
	GetLatestBatch(ctx context.Context) ([]models.RankingPredict, error)
}

// Options holds the service's tunables.
type Options struct {
	Season        int
	HistoricalTTL time.Duration
	RankingTTL    time.Duration
}

// Service orchestrates refreshes and serves queries.
type Service struct {
	records   RecordSource
	store     ForecastStore
	probs     ProbabilityLister
	ranks     RankingLister
	snapshots *cache.Manager
	resp      *cache.RedisCache // optional, may be nil
	opts      Options

	// now is swappable for tests.
	now func() time.Time

	// Refresh gate: at most one refresh runs at a time. Triggers that find
	// one in flight are told so; readers join it instead.
	mu      sync.Mutex
	current *refreshRun
}

type refreshRun struct {
	done chan struct{}
	err  error // written before done is closed
}

// New creates a Service. resp may be nil to run without the Redis response
// cache.
func New(records RecordSource, store ForecastStore, probs ProbabilityLister, ranks RankingLister, snapshots *cache.Manager, resp *cache.RedisCache, opts Options) *Service {
	return &Service{
		records:   records,
		store:     store,
		probs:     probs,
		ranks:     ranks,
		snapshots: snapshots,
		resp:      resp,
		opts:      opts,
		now:       time.Now,
	}
}

// Snapshots exposes the snapshot manager (for the scheduler's staleness
// checks).
func (s *Service) Snapshots() *cache.Manager { return s.snapshots }

// beginRun claims the refresh gate. The second return is false when another
// run already holds it, in which case the first return is that run.
func (s *Service) beginRun() (*refreshRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, false
	}
	run := &refreshRun{done: make(chan struct{})}
	s.current = run
	return run, true
}

// finishRun releases the gate unconditionally and wakes all waiters.
func (s *Service) finishRun(run *refreshRun, err error) {
	run.err = err
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	close(run.done)
}

// ForceRefresh runs the refresh chain under the gate. A concurrent trigger
// gets ErrRefreshRunning and leaves the in-flight run unaffected.
func (s *Service) ForceRefresh(ctx context.Context) error {
	return s.triggerRefresh(ctx, "manual")
}

// RefreshScheduled is the cron trigger's entry point.
func (s *Service) RefreshScheduled(ctx context.Context) error {
	return s.triggerRefresh(ctx, "cron")
}

func (s *Service) triggerRefresh(ctx context.Context, trigger string) error {
	run, started := s.beginRun()
	if !started {
		metrics.RefreshCoalescedTotal.Inc()
		log.Info().Str("trigger", trigger).Msg("Refresh already running, trigger coalesced")
		return ErrRefreshRunning
	}
	err := s.runRefresh(ctx, trigger)
	s.finishRun(run, err)
	return err
}

// refreshOrJoin is the read path's way in: start a refresh if none is
// running, otherwise wait for the in-flight one and share its outcome.
func (s *Service) refreshOrJoin(ctx context.Context) error {
	run, started := s.beginRun()
	if !started {
		select {
		case <-run.done:
			return run.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	err := s.runRefresh(ctx, "read")
	s.finishRun(run, err)
	return err
}

// runRefresh executes the whole chain: aggregate, transform, build, rank,
// persist, and only then publish the new snapshot. Any failure aborts the
// chain with the cache and the store untouched, so the two never diverge.
func (s *Service) runRefresh(ctx context.Context, trigger string) error {
	start := time.Now()
	asOf := s.now().UTC()

	log.Info().Str("trigger", trigger).Int("season", s.opts.Season).Msg("Refresh started")

	hitters, err := s.records.GetHitterRecords(ctx, s.opts.Season)
	if err != nil {
		return s.refreshFailed(trigger, start, fmt.Errorf("loading hitter records: %w", err))
	}
	pitchers, err := s.records.GetPitcherRecords(ctx, s.opts.Season)
	if err != nil {
		return s.refreshFailed(trigger, start, fmt.Errorf("loading pitcher records: %w", err))
	}

	offense, pitch, err := predictor.AggregateSeasonIndexes(hitters, pitchers, s.opts.Season)
	if err != nil {
		return s.refreshFailed(trigger, start, err)
	}

	scores, err := predictor.ComputeScores(offense, pitch)
	if err != nil {
		return s.refreshFailed(trigger, start, err)
	}

	matrix := predictor.BuildMatrix(scores)
	ranking := predictor.ComputeRanking(scores, asOf)

	if err := s.store.SaveForecast(ctx, matrix, ranking, asOf); err != nil {
		return s.refreshFailed(trigger, start, err)
	}

	// Persistence committed; now the served snapshot may follow.
	s.snapshots.Replace(cache.NewSnapshot(matrix, ranking, asOf, s.snapshots.Policy().Validity))

	if s.resp != nil {
		s.resp.Invalidate(ctx, historicalCacheKey, rankingCacheKey)
	}

	metrics.RecordRefresh(trigger, "success", time.Since(start).Seconds())
	log.Info().
		Str("trigger", trigger).
		Int("teams", len(scores)).
		Dur("duration", time.Since(start)).
		Msg("Refresh complete")

	return nil
}

func (s *Service) refreshFailed(trigger string, start time.Time, err error) error {
	metrics.RecordRefresh(trigger, "failure", time.Since(start).Seconds())
	metrics.RecordError("refresh", errorKind(err))
	log.Error().Err(err).Str("trigger", trigger).Msg("Refresh failed, keeping previous snapshot")
	return err
}

// ensureSnapshot returns a snapshot fit to serve, refreshing first when the
// slot is empty or stale. After a failed refresh the last snapshot keeps
// being served if one exists; only a cold cache surfaces the failure to the
// reader.
func (s *Service) ensureSnapshot(ctx context.Context) (*cache.Snapshot, error) {
	now := s.now()
	snap := s.snapshots.Current()
	state := s.snapshots.Policy().State(snap, now)
	metrics.RecordSnapshotRead(state.String())

	if state == cache.Warm {
		return snap, nil
	}

	err := s.refreshOrJoin(ctx)

	if cur := s.snapshots.Current(); cur != nil {
		return cur, nil
	}
	if err == nil {
		// A successful refresh always publishes a snapshot.
		err = errors.New("refresh reported success without a snapshot")
	}
	return nil, fmt.Errorf("%w: %v", ErrNotInitialized, err)
}

// Query returns team1's win probability against team2 in percent.
func (s *Service) Query(ctx context.Context, team1, team2 string) (float64, error) {
	start := time.Now()

	snap, err := s.ensureSnapshot(ctx)
	if err != nil {
		metrics.RecordQuery("unavailable", time.Since(start).Seconds())
		return 0, err
	}

	prob, err := snap.Matrix.Probability(team1, team2)
	if err != nil {
		if errors.Is(err, predictor.ErrUncomputable) {
			// Completeness invariant broken; this is a fault, not a user
			// error.
			metrics.RecordError("query", "uncomputable")
			log.Error().Err(err).Msg("Probability matrix incomplete")
		}
		metrics.RecordQuery(errorKind(err), time.Since(start).Seconds())
		return 0, err
	}

	metrics.RecordQuery("ok", time.Since(start).Seconds())
	return prob, nil
}

// Teams returns the served snapshot's team set.
func (s *Service) Teams(ctx context.Context) ([]string, error) {
	snap, err := s.ensureSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Matrix.Teams(), nil
}

// HistoricalProbabilities lists every persisted matrix row, straight from
// the store and independent of the snapshot cache.
func (s *Service) HistoricalProbabilities(ctx context.Context) ([]models.WinProbability, error) {
	var cached []models.WinProbability
	if s.resp != nil && s.resp.GetJSON(ctx, historicalCacheKey, &cached) {
		metrics.RecordCacheHit()
		return cached, nil
	}
	metrics.RecordCacheMiss()

	probs, err := s.probs.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.resp != nil {
		s.resp.SetJSON(ctx, historicalCacheKey, probs, s.opts.HistoricalTTL)
	}
	return probs, nil
}

// CurrentRanking lists the most recent persisted ranking batch, ordered by
// rank ascending.
func (s *Service) CurrentRanking(ctx context.Context) ([]models.RankingPredict, error) {
	var cached []models.RankingPredict
	if s.resp != nil && s.resp.GetJSON(ctx, rankingCacheKey, &cached) {
		metrics.RecordCacheHit()
		return cached, nil
	}
	metrics.RecordCacheMiss()

	ranking, err := s.ranks.GetLatestBatch(ctx)
	if err != nil {
		return nil, err
	}

	if s.resp != nil {
		s.resp.SetJSON(ctx, rankingCacheKey, ranking, s.opts.RankingTTL)
	}
	return ranking, nil
}

// errorKind buckets an error for metrics labels.
func errorKind(err error) string {
	switch {
	case errors.Is(err, predictor.ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, predictor.ErrSameTeam):
		return "same_team"
	case errors.Is(err, predictor.ErrUncomputable):
		return "uncomputable"
	case errors.Is(err, predictor.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, predictor.ErrTeamSetMismatch):
		return "team_set_mismatch"
	default:
		return "internal"
	}
}
