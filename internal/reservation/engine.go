package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/silverscreen/movie-booking/internal/model"
)

// SeatStore is the persistence contract the engine drives.  Every
// mutating method must be atomic with respect to concurrent calls on
// the same show: two callers may never both observe AVAILABLE and both
// transition the same seat.  Implementations enforce this with
// conditional updates keyed on the expected prior state, not with
// read-then-write sequences.
type SeatStore interface {
	// Snapshot returns every seat of the show, ordered by row then
	// number, without holder attribution.
	Snapshot(ctx context.Context, showID uint64) ([]Seat, error)

	// HoldSeats transitions all given labels AVAILABLE -> HELD for the
	// user in one atomic unit and returns the summed price.  It returns
	// ErrUnknownSeat when a label is not part of the show's map and
	// ErrSeatUnavailable when any seat is not AVAILABLE; in both cases
	// no seat is touched.
	HoldSeats(ctx context.Context, showID, userID uint64, labels []string, token string, expiresAt time.Time) (uint32, error)

	// HeldSeats returns the live (non-expired) seats held under the
	// given token together with the hold expiry.  An empty slice means
	// the hold lapsed or never existed.
	HeldSeats(ctx context.Context, showID, userID uint64, token string) ([]Seat, time.Time, error)

	// BookHeldSeats transitions the token's seats HELD -> BOOKED and
	// returns how many seats were flipped.  Seats whose hold lapsed in
	// the meantime are not flipped and are reflected in the count.
	BookHeldSeats(ctx context.Context, showID, userID uint64, token string) (int, error)

	// ReleaseHeldSeats transitions the token's seats HELD -> AVAILABLE
	// and returns how many were released.  Idempotent: releasing an
	// already released or committed hold is a no-op returning zero.
	ReleaseHeldSeats(ctx context.Context, showID, userID uint64, token string) (int, error)

	// ExpireStaleHolds releases every HELD seat whose hold lapsed,
	// across all shows, and returns the number reclaimed.
	ExpireStaleHolds(ctx context.Context) (int, error)

	// ForceBooked marks the given seats BOOKED for the user regardless
	// of their current non-BOOKED state.  Used only by ledger-driven
	// recovery, where an existing booking is authoritative.
	ForceBooked(ctx context.Context, showID, userID uint64, labels []string) error
}

// Ledger is the durable, append-only record of confirmed purchases.
type Ledger interface {
	// Record persists the booking and populates its ID, MovieID and
	// CreatedAt.  Bookings are immutable once recorded.
	Record(ctx context.Context, b *model.Booking) error

	// UnappliedSeatRefs lists seats referenced by CONFIRMED bookings
	// that are not currently BOOKED in their show's seat map, grouped
	// per booking.  Feeds Engine.Reconcile.
	UnappliedSeatRefs(ctx context.Context) ([]SeatRef, error)
}

// SeatRef points at the seats of one booking that need repair.
type SeatRef struct {
	ShowID uint64
	UserID uint64
	Labels []string
}

// Payment carries the mocked payment details attached to a commit.
type Payment struct {
	Method        string
	TransactionID string
}

// Config tunes the engine.  Zero values are replaced with defaults
// matching the platform's limits: five seats per booking and a five
// minute hold lifetime.
type Config struct {
	HoldTTL            time.Duration
	MaxSeatsPerBooking int
}

// Engine is the sole authority allowed to mutate seat state.  It
// guarantees that two concurrent attempts never both claim the same
// seat, that multi-seat holds are all-or-nothing, and that the booking
// ledger and the seat map converge after partial failures.
type Engine struct {
	store  SeatStore
	ledger Ledger
	cfg    Config
	log    *logrus.Logger
}

// NewEngine wires an Engine over the given store and ledger.  The
// logger may be nil, in which case the standard logrus logger is used.
func NewEngine(store SeatStore, ledger Ledger, cfg Config, log *logrus.Logger) *Engine {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 5 * time.Minute
	}
	if cfg.MaxSeatsPerBooking <= 0 {
		cfg.MaxSeatsPerBooking = 5
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{store: store, ledger: ledger, cfg: cfg, log: log}
}

// Snapshot returns the show's seat availability without holder
// attribution.
func (e *Engine) Snapshot(ctx context.Context, showID uint64) ([]Seat, error) {
	seats, err := e.store.Snapshot(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return seats, nil
}

// Reserve claims the given seats for the user.  Either every requested
// seat moves AVAILABLE -> HELD or none does; contention is reported as
// ErrSeatUnavailable and is never retried here.  On success the
// returned handle carries the hold token, the computed total price and
// the expiry after which the seats are reclaimed.
func (e *Engine) Reserve(ctx context.Context, showID, userID uint64, labels []string) (*Handle, error) {
	labels = NormalizeLabels(labels)
	if len(labels) == 0 || len(labels) > e.cfg.MaxSeatsPerBooking {
		return nil, ErrInvalidSelection
	}
	// Reject malformed labels before touching the store at all.
	for _, l := range labels {
		if _, _, ok := ParseLabel(l); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSeat, l)
		}
	}
	token, err := newHoldToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(e.cfg.HoldTTL)
	total, err := e.store.HoldSeats(ctx, showID, userID, labels, token, expiresAt)
	if err != nil {
		return nil, err
	}
	return &Handle{
		ShowID:     showID,
		UserID:     userID,
		Token:      token,
		Labels:     labels,
		TotalCents: total,
		ExpiresAt:  expiresAt,
	}, nil
}

// Resume rebuilds the handle for an in-flight hold from its token.  It
// returns ErrNoActiveHold when no live seats are held under the token,
// which also covers expired holds.
func (e *Engine) Resume(ctx context.Context, showID, userID uint64, token string) (*Handle, error) {
	if token == "" {
		return nil, ErrNoActiveHold
	}
	seats, expiresAt, err := e.store.HeldSeats(ctx, showID, userID, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(seats) == 0 {
		return nil, ErrNoActiveHold
	}
	h := &Handle{ShowID: showID, UserID: userID, Token: token, ExpiresAt: expiresAt}
	for _, s := range seats {
		h.Labels = append(h.Labels, s.Label())
		h.TotalCents += s.PriceCents
	}
	return h, nil
}

// Commit finalises a hold into a booking.  The ledger write happens
// before the seat flip so that a crash in between is repaired by
// Reconcile (the booking is authoritative).  A ledger failure triggers
// a synchronous compensating release of the attempt's seats on the same
// call path; only if that release also fails does the caller see an
// InconsistencyError.
func (e *Engine) Commit(ctx context.Context, h *Handle, p Payment) (*model.Booking, error) {
	seats, _, err := e.store.HeldSeats(ctx, h.ShowID, h.UserID, h.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(seats) == 0 || len(seats) != len(h.Labels) {
		// Part of the hold lapsed; nothing was mutated.
		return nil, ErrHoldExpired
	}

	booking := &model.Booking{
		UserID:        h.UserID,
		ShowID:        h.ShowID,
		PaymentStatus: model.PaymentConfirmed,
		PaymentMethod: p.Method,
		TransactionID: p.TransactionID,
	}
	if booking.TransactionID == "" {
		booking.TransactionID = uuid.NewString()
	}
	// Preserve the user's selection order from the handle, not the
	// store's iteration order.
	byLabel := make(map[string]Seat, len(seats))
	for _, s := range seats {
		byLabel[s.Label()] = s
	}
	for _, l := range h.Labels {
		s, ok := byLabel[l]
		if !ok {
			return nil, ErrHoldExpired
		}
		booking.Seats = append(booking.Seats, model.BookingSeat{
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			PriceCents: s.PriceCents,
		})
		booking.TotalCents += s.PriceCents
	}

	if err := e.ledger.Record(ctx, booking); err != nil {
		if _, relErr := e.store.ReleaseHeldSeats(ctx, h.ShowID, h.UserID, h.Token); relErr != nil {
			inc := &InconsistencyError{ShowID: h.ShowID, Labels: h.Labels, Cause: relErr}
			e.log.WithError(relErr).WithField("show_id", h.ShowID).
				Error("compensating release failed after ledger write failure")
			return nil, inc
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	n, err := e.store.BookHeldSeats(ctx, h.ShowID, h.UserID, h.Token)
	if err != nil || n != len(h.Labels) {
		// The booking exists, so it wins: force the seat map to match it
		// instead of leaving seats HELD forever or half flipped.
		if repErr := e.store.ForceBooked(ctx, h.ShowID, h.UserID, h.Labels); repErr != nil {
			inc := &InconsistencyError{ShowID: h.ShowID, Labels: h.Labels, Cause: repErr}
			e.log.WithError(repErr).WithFields(logrus.Fields{
				"show_id":    h.ShowID,
				"booking_id": booking.ID,
			}).Error("seat flip repair failed after booking write")
			return nil, inc
		}
		e.log.WithFields(logrus.Fields{
			"show_id":    h.ShowID,
			"booking_id": booking.ID,
			"flipped":    n,
			"expected":   len(h.Labels),
		}).Warn("seat flip shortfall repaired from ledger")
	}
	return booking, nil
}

// Release returns the hold's seats to AVAILABLE.  It is idempotent: a
// second release, or a release after commit, is a no-op and does not
// touch BOOKED seats.
func (e *Engine) Release(ctx context.Context, h *Handle) (int, error) {
	n, err := e.store.ReleaseHeldSeats(ctx, h.ShowID, h.UserID, h.Token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}

// ExpireStaleHolds reclaims every seat whose hold outlived the
// configured lifetime.  The store also expires lazily inside its own
// claim paths; this sweep is the safety net for abandoned flows.
func (e *Engine) ExpireStaleHolds(ctx context.Context) (int, error) {
	return e.store.ExpireStaleHolds(ctx)
}

// Reconcile forces seats referenced by confirmed bookings to BOOKED.
// It closes the crash window between a ledger write and the seat flip
// and is run at startup and periodically by the sweeper.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	refs, err := e.ledger.UnappliedSeatRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	repaired := 0
	for _, ref := range refs {
		if err := e.store.ForceBooked(ctx, ref.ShowID, ref.UserID, ref.Labels); err != nil {
			return repaired, &InconsistencyError{ShowID: ref.ShowID, Labels: ref.Labels, Cause: err}
		}
		repaired += len(ref.Labels)
	}
	return repaired, nil
}

// StartSweeper runs the expiry and reconciliation sweeps on the given
// interval until the context is cancelled.  Errors are logged and do
// not stop the loop.
func (e *Engine) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := e.ExpireStaleHolds(ctx); err != nil {
				e.log.WithError(err).Error("stale hold sweep failed")
			} else if n > 0 {
				e.log.WithField("released", n).Info("reclaimed stale holds")
			}
			if n, err := e.Reconcile(ctx); err != nil {
				e.log.WithError(err).Error("ledger reconciliation failed")
			} else if n > 0 {
				e.log.WithField("repaired", n).Warn("repaired seats from ledger")
			}
		}
	}
}
