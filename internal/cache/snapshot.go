package cache

import (
	"sync/atomic"
	"time"

	"dugout/prediction/internal/predictor"
)

// State describes the snapshot slot relative to the staleness policy.
type State int

const (
	// Empty means no refresh has succeeded yet; reads must wait for one.
	Empty State = iota
	// Warm means the snapshot is inside its validity window.
	Warm
	// Stale means the validity window has passed, or now falls inside the
	// daily forced-refresh window.
	Stale
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Warm:
		return "warm"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Snapshot is one refresh's complete result. It is immutable: a refresh
// builds a new Snapshot and swaps it in whole, so in-flight readers keep a
// consistent view of the old one.
type Snapshot struct {
	Matrix     predictor.ProbabilityMatrix
	Ranking    []predictor.RankingEntry
	LastUpdate time.Time
	NextUpdate time.Time
}

// Policy is the single staleness rule shared by the read path and the
// scheduler. Validity is the window after LastUpdate during which reads are
// served without a refresh; ForcedWindow is the band after local midnight
// during which any read refreshes regardless of validity, so each day
// starts fresh even if the scheduled job is late.
type Policy struct {
	Validity     time.Duration
	ForcedWindow time.Duration
}

// DefaultPolicy matches the production behavior: 24h validity, forced
// refresh during the first five minutes of each day.
func DefaultPolicy() Policy {
	return Policy{Validity: 24 * time.Hour, ForcedWindow: 5 * time.Minute}
}

// InForcedWindow reports whether now falls inside the daily forced-refresh
// band, evaluated in now's own location.
func (p Policy) InForcedWindow(now time.Time) bool {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return now.Sub(midnight) < p.ForcedWindow
}

// State classifies a snapshot at the given instant.
func (p Policy) State(snap *Snapshot, now time.Time) State {
	if snap == nil {
		return Empty
	}
	if !now.Before(snap.NextUpdate) || p.InForcedWindow(now) {
		return Stale
	}
	return Warm
}

// Manager owns the single snapshot slot. Replacement is an atomic pointer
// swap; the slot is never mutated in place, so any number of readers can
// run in parallel with the one active writer.
type Manager struct {
	policy Policy
	slot   atomic.Pointer[Snapshot]
}

// NewManager creates a cold (Empty) manager.
func NewManager(policy Policy) *Manager {
	return &Manager{policy: policy}
}

// Policy returns the staleness policy.
func (m *Manager) Policy() Policy { return m.policy }

// Current returns the served snapshot, or nil before the first successful
// refresh. The returned snapshot stays valid for the length of the read
// even if a refresh replaces the slot meanwhile.
func (m *Manager) Current() *Snapshot {
	return m.slot.Load()
}

// State classifies the slot right now.
func (m *Manager) State(now time.Time) State {
	return m.policy.State(m.slot.Load(), now)
}

// Replace publishes a freshly computed snapshot. Only the active refresh
// may call this, and only after persistence succeeded; a failed refresh
// must leave the previous snapshot in place.
func (m *Manager) Replace(snap *Snapshot) {
	m.slot.Store(snap)
}

// NewSnapshot stamps a snapshot with its validity window.
func NewSnapshot(matrix predictor.ProbabilityMatrix, ranking []predictor.RankingEntry, now time.Time, validity time.Duration) *Snapshot {
	return &Snapshot{
		Matrix:     matrix,
		Ranking:    ranking,
		LastUpdate: now,
		NextUpdate: now.Add(validity),
	}
}
