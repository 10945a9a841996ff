package predictor

import (
	"errors"
	"fmt"
)

// Refresh input errors. A refresh that hits one of these aborts without
// touching the cache or the store.
var (
	ErrEmptyInput      = errors.New("no season records after filtering")
	ErrTeamSetMismatch = errors.New("offense and pitching team sets differ")
)

// Query-boundary domain errors.
var (
	ErrUnknownTeam = errors.New("unknown team")
	ErrSameTeam    = errors.New("cannot compare a team against itself")

	// ErrUncomputable signals a hole in the probability matrix. The builder
	// guarantees completeness, so hitting this is an invariant violation,
	// not a user error.
	ErrUncomputable = errors.New("probability not computable")
)

// UnknownTeamError wraps ErrUnknownTeam with the offending name and the
// valid team set for the caller-facing message.
type UnknownTeamError struct {
	Name       string
	ValidTeams []string
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("unknown team %q (valid teams: %v)", e.Name, e.ValidTeams)
}

func (e *UnknownTeamError) Unwrap() error { return ErrUnknownTeam }
