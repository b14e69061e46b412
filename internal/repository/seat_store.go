package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/silverscreen/movie-booking/internal/reservation"
)

// SeatStoreRepo is the MySQL implementation of reservation.SeatStore.
// Every seat transition is a single conditional UPDATE keyed on
// (show_id, label, expected prior state) with the affected row count
// verified inside a transaction.  The whole show document is never
// loaded, mutated in memory and written back; that read-modify-write
// pattern is exactly the race this store exists to prevent.
type SeatStoreRepo struct {
	db *sql.DB
}

// NewSeatStoreRepo constructs a SeatStoreRepo with the given DB handle.
func NewSeatStoreRepo(db *sql.DB) *SeatStoreRepo { return &SeatStoreRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *SeatStoreRepo) DB() *sql.DB { return r.db }

// CreateForShowTx bulk-inserts a freshly generated seat map for a show
// within the caller's transaction.  Used by show creation so the show
// row and its seats commit or roll back together.
func (r *SeatStoreRepo) CreateForShowTx(ctx context.Context, tx *sql.Tx, showID uint64, seats []reservation.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO show_seats (show_id, row_label, seat_number, status, price_cents, version) VALUES `
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, showID, s.RowLabel, s.SeatNumber, string(s.State), s.PriceCents, 1)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// labelPredicate builds "(row_label = ? AND seat_number = ?) OR ..."
// for the given composite labels plus the matching argument list.  It
// returns reservation.ErrUnknownSeat for labels that do not parse.
func labelPredicate(labels []string) (string, []interface{}, error) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(labels)*2)
	for i, l := range labels {
		row, num, ok := reservation.ParseLabel(l)
		if !ok {
			return "", nil, fmt.Errorf("%w: %s", reservation.ErrUnknownSeat, l)
		}
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("(row_label = ? AND seat_number = ?)")
		args = append(args, row, num)
	}
	return "(" + sb.String() + ")", args, nil
}

// expireShowHoldsTx lazily releases lapsed holds for one show inside
// the caller's transaction, so availability checks always run against
// current state.
func (r *SeatStoreRepo) expireShowHoldsTx(ctx context.Context, tx *sql.Tx, showID uint64) error {
	const q = `UPDATE show_seats
	           SET status = 'AVAILABLE', holder_id = NULL, hold_token = NULL,
	               hold_expires_at = NULL, hold_position = NULL, version = version + 1
	           WHERE show_id = ? AND status = 'HELD' AND hold_expires_at <= UTC_TIMESTAMP()`
	_, err := tx.ExecContext(ctx, q, showID)
	return err
}

// Snapshot returns every seat of the show ordered by row then number.
// Holder attribution is deliberately not selected: availability views
// never reveal who holds a seat.
func (r *SeatStoreRepo) Snapshot(ctx context.Context, showID uint64) ([]reservation.Seat, error) {
	const q = `SELECT row_label, seat_number, status, price_cents
	           FROM show_seats
	           WHERE show_id = ?
	           ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []reservation.Seat
	for rows.Next() {
		var s reservation.Seat
		var status string
		if err := rows.Scan(&s.RowLabel, &s.SeatNumber, &status, &s.PriceCents); err != nil {
			return nil, err
		}
		s.State = reservation.SeatState(status)
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// HoldSeats transitions all requested seats AVAILABLE -> HELD in one
// conditional multi-row UPDATE.  When the affected row count falls
// short of the request, the transaction rolls back and no seat is
// touched: either every seat is claimed for this attempt or none is.
func (r *SeatStoreRepo) HoldSeats(ctx context.Context, showID, userID uint64, labels []string, token string, expiresAt time.Time) (uint32, error) {
	pred, predArgs, err := labelPredicate(labels)
	if err != nil {
		return 0, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := r.expireShowHoldsTx(ctx, tx, showID); err != nil {
		return 0, err
	}

	// Distinguish "seat does not exist" from "seat is taken" before the
	// claim, so the caller gets the right error without any mutation.
	countQ := `SELECT COUNT(*) FROM show_seats WHERE show_id = ? AND ` + pred
	countArgs := append([]interface{}{showID}, predArgs...)
	var existing int
	if err := tx.QueryRowContext(ctx, countQ, countArgs...).Scan(&existing); err != nil {
		return 0, err
	}
	if existing != len(labels) {
		return 0, reservation.ErrUnknownSeat
	}

	// FIELD against the requested labels stamps each row with its 1-based
	// position in the selection, so a later HeldSeats read can return the
	// seats in the order the user picked them.
	marks := strings.TrimSuffix(strings.Repeat("?,", len(labels)), ",")
	holdQ := `UPDATE show_seats
	          SET status = 'HELD', holder_id = ?, hold_token = ?, hold_expires_at = ?,
	              hold_position = FIELD(CONCAT(row_label, seat_number), ` + marks + `),
	              version = version + 1
	          WHERE show_id = ? AND status = 'AVAILABLE' AND ` + pred
	holdArgs := []interface{}{userID, token, expiresAt.UTC().Format("2006-01-02 15:04:05")}
	for _, l := range labels {
		holdArgs = append(holdArgs, l)
	}
	holdArgs = append(holdArgs, showID)
	holdArgs = append(holdArgs, predArgs...)
	res, err := tx.ExecContext(ctx, holdQ, holdArgs...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n != int64(len(labels)) {
		// At least one seat was HELD or BOOKED; the rollback undoes the
		// partial claim so concurrent winners keep their seats.
		return 0, reservation.ErrSeatUnavailable
	}

	var total uint32
	const sumQ = `SELECT COALESCE(SUM(price_cents), 0) FROM show_seats WHERE show_id = ? AND hold_token = ?`
	if err := tx.QueryRowContext(ctx, sumQ, showID, token).Scan(&total); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return total, nil
}

// HeldSeats returns the live seats held under the given token and the
// hold expiry, ordered by the position each seat had in the selection.
// An empty result means the hold lapsed or never existed.
func (r *SeatStoreRepo) HeldSeats(ctx context.Context, showID, userID uint64, token string) ([]reservation.Seat, time.Time, error) {
	const q = `SELECT row_label, seat_number, price_cents, hold_expires_at
	           FROM show_seats
	           WHERE show_id = ? AND holder_id = ? AND hold_token = ?
	             AND status = 'HELD' AND hold_expires_at > UTC_TIMESTAMP()
	           ORDER BY hold_position`
	rows, err := r.db.QueryContext(ctx, q, showID, userID, token)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()
	var seats []reservation.Seat
	var expiresAt time.Time
	for rows.Next() {
		var s reservation.Seat
		if err := rows.Scan(&s.RowLabel, &s.SeatNumber, &s.PriceCents, &expiresAt); err != nil {
			return nil, time.Time{}, err
		}
		s.State = reservation.StateHeld
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	return seats, expiresAt.UTC(), nil
}

// BookHeldSeats flips the token's live holds HELD -> BOOKED and reports
// how many rows were flipped.  The holder attribution stays on the row
// so booked seats remain traceable to their buyer.
func (r *SeatStoreRepo) BookHeldSeats(ctx context.Context, showID, userID uint64, token string) (int, error) {
	const q = `UPDATE show_seats
	           SET status = 'BOOKED', hold_token = NULL, hold_expires_at = NULL, hold_position = NULL, version = version + 1
	           WHERE show_id = ? AND holder_id = ? AND hold_token = ?
	             AND status = 'HELD' AND hold_expires_at > UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q, showID, userID, token)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ReleaseHeldSeats returns the token's holds to AVAILABLE.  Idempotent:
// the conditional WHERE makes a repeated release, or a release after
// commit, affect zero rows without error.
func (r *SeatStoreRepo) ReleaseHeldSeats(ctx context.Context, showID, userID uint64, token string) (int, error) {
	const q = `UPDATE show_seats
	           SET status = 'AVAILABLE', holder_id = NULL, hold_token = NULL,
	               hold_expires_at = NULL, hold_position = NULL, version = version + 1
	           WHERE show_id = ? AND holder_id = ? AND hold_token = ? AND status = 'HELD'`
	res, err := r.db.ExecContext(ctx, q, showID, userID, token)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ExpireStaleHolds reclaims lapsed holds across all shows.  Invoked by
// the engine's background sweeper; the claim paths also expire lazily
// per show.
func (r *SeatStoreRepo) ExpireStaleHolds(ctx context.Context) (int, error) {
	const q = `UPDATE show_seats
	           SET status = 'AVAILABLE', holder_id = NULL, hold_token = NULL,
	               hold_expires_at = NULL, hold_position = NULL, version = version + 1
	           WHERE status = 'HELD' AND hold_expires_at <= UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// ForceBooked marks the given seats BOOKED for the user regardless of
// their current non-BOOKED state.  Only ledger-driven recovery calls
// this: a confirmed booking is authoritative over the seat map.
func (r *SeatStoreRepo) ForceBooked(ctx context.Context, showID, userID uint64, labels []string) error {
	pred, predArgs, err := labelPredicate(labels)
	if err != nil {
		return err
	}
	q := `UPDATE show_seats
	      SET status = 'BOOKED', holder_id = ?, hold_token = NULL,
	          hold_expires_at = NULL, hold_position = NULL, version = version + 1
	      WHERE show_id = ? AND status <> 'BOOKED' AND ` + pred
	args := append([]interface{}{userID, showID}, predArgs...)
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}
