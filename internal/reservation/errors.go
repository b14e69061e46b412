// Package reservation implements the seat inventory core: seat map
// generation, the reservation engine that is the sole authority over
// seat state transitions, and the contracts it requires from the
// persistence layer.  Handlers translate the sentinel errors defined
// here into HTTP responses; repositories return them when an atomic
// conditional update does not take effect.
package reservation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidLayout is returned when a seat map is generated from a
// non-positive or oversized row/column layout.  Fatal to that show
// creation call; never retried.
var ErrInvalidLayout = errors.New("invalid seat layout")

// ErrInvalidSelection is returned when a reservation attempt carries an
// empty seat list or more seats than the configured per-booking limit.
var ErrInvalidSelection = errors.New("invalid seat selection")

// ErrUnknownSeat is returned when a requested label is not part of the
// show's seat map.  Rejected before any state mutation.
var ErrUnknownSeat = errors.New("unknown seat")

// ErrSeatUnavailable is returned when one or more requested seats are
// not AVAILABLE at claim time.  This is an expected, user-facing
// condition under contention, not a fault; no mutation occurs.
var ErrSeatUnavailable = errors.New("seat unavailable")

// ErrHoldExpired is returned when committing a hold whose seats are no
// longer HELD by the caller.  The caller must re-reserve.
var ErrHoldExpired = errors.New("hold expired")

// ErrNoActiveHold is returned when resuming or releasing a hold token
// that has no live seats behind it.
var ErrNoActiveHold = errors.New("no active hold")

// ErrPersistence wraps storage failures during booking writes or seat
// transitions.  When it surfaces from Commit, the compensating release
// of the attempt's seats has already run.
var ErrPersistence = errors.New("persistence failure")

// InconsistencyError reports that a compensating release or a
// ledger-driven repair failed, leaving seat state and the booking
// ledger potentially diverged.  It is surfaced (and logged) for
// operator attention, never swallowed.
type InconsistencyError struct {
	ShowID uint64
	Labels []string
	Cause  error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("seat state inconsistent for show %d seats [%s]: %v",
		e.ShowID, strings.Join(e.Labels, ","), e.Cause)
}

func (e *InconsistencyError) Unwrap() error { return e.Cause }
