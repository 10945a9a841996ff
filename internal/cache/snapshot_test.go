package cache

import (
	"sync"
	"testing"
	"time"

	"dugout/prediction/internal/predictor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(lastUpdate time.Time) *Snapshot {
	return NewSnapshot(predictor.ProbabilityMatrix{}, nil, lastUpdate, 24*time.Hour)
}

func TestPolicy_State(t *testing.T) {
	policy := DefaultPolicy()
	// Noon, outside the forced window
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil snapshot is empty", func(t *testing.T) {
		assert.Equal(t, Empty, policy.State(nil, noon))
	})

	t.Run("inside validity window is warm", func(t *testing.T) {
		snap := testSnapshot(noon.Add(-1 * time.Hour))
		assert.Equal(t, Warm, policy.State(snap, noon))
	})

	t.Run("just before expiry is warm", func(t *testing.T) {
		snap := testSnapshot(noon.Add(-24*time.Hour + time.Second))
		assert.Equal(t, Warm, policy.State(snap, noon))
	})

	t.Run("expired is stale", func(t *testing.T) {
		snap := testSnapshot(noon.Add(-24 * time.Hour))
		assert.Equal(t, Stale, policy.State(snap, noon))
	})
}

func TestPolicy_ForcedWindow(t *testing.T) {
	policy := DefaultPolicy()

	midnight := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, policy.InForcedWindow(midnight))
	assert.True(t, policy.InForcedWindow(midnight.Add(4*time.Minute+59*time.Second)))
	assert.False(t, policy.InForcedWindow(midnight.Add(5*time.Minute)))
	assert.False(t, policy.InForcedWindow(midnight.Add(-time.Second)))

	// A snapshot refreshed an hour ago is still inside its validity window,
	// but the forced window overrides it.
	snap := testSnapshot(midnight.Add(-1 * time.Hour))
	assert.Equal(t, Stale, policy.State(snap, midnight.Add(2*time.Minute)))
	assert.Equal(t, Warm, policy.State(snap, midnight.Add(10*time.Minute)))
}

func TestManager_ReplaceAndCurrent(t *testing.T) {
	m := NewManager(DefaultPolicy())

	assert.Nil(t, m.Current())
	assert.Equal(t, Empty, m.State(time.Now()))

	now := time.Now()
	snap := testSnapshot(now)
	m.Replace(snap)

	require.Same(t, snap, m.Current())
	assert.Equal(t, Warm, m.State(now.Add(time.Minute)))
	assert.Equal(t, now.Add(24*time.Hour), snap.NextUpdate)
}

func TestManager_ReplaceDoesNotInvalidateInFlightReaders(t *testing.T) {
	m := NewManager(DefaultPolicy())

	old := &Snapshot{
		Matrix:     predictor.ProbabilityMatrix{"A": {"B": 60.0}, "B": {"A": 40.0}},
		LastUpdate: time.Now(),
	}
	m.Replace(old)

	// A reader takes its reference once, then a refresh swaps the slot.
	held := m.Current()
	m.Replace(&Snapshot{
		Matrix:     predictor.ProbabilityMatrix{"A": {"B": 70.0}, "B": {"A": 30.0}},
		LastUpdate: time.Now(),
	})

	// The held snapshot is untouched.
	assert.Equal(t, 60.0, held.Matrix["A"]["B"])
	assert.Equal(t, 70.0, m.Current().Matrix["A"]["B"])
}

func TestManager_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	m := NewManager(DefaultPolicy())

	// Each generation's matrix and ranking carry the same timestamp; a
	// reader must never observe a mix.
	makeGen := func(ts time.Time) *Snapshot {
		return &Snapshot{
			Matrix: predictor.ProbabilityMatrix{"A": {"B": 50.0}},
			Ranking: []predictor.RankingEntry{
				{Team: "A", Rank: 1, AsOf: ts},
			},
			LastUpdate: ts,
		}
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m.Replace(makeGen(base))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := m.Current()
				if len(snap.Ranking) > 0 {
					assert.Equal(t, snap.LastUpdate, snap.Ranking[0].AsOf,
						"matrix and ranking timestamps must match inside a snapshot")
				}
			}
		}()
	}

	for gen := 1; gen <= 100; gen++ {
		m.Replace(makeGen(base.Add(time.Duration(gen) * time.Hour)))
	}

	close(stop)
	wg.Wait()
}
