package repository

import (
	"context"
	"database/sql"

	"github.com/silverscreen/movie-booking/internal/model"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

// BookingRepo is the MySQL booking ledger.  Bookings are written once
// at commit time and never updated or deleted; reconciliation reads
// them back to repair seat maps, which is why the ledger write comes
// before the seat flip in the commit path.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the given DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Record persists the booking and its seats in one transaction and
// fills in the generated ID, the denormalized MovieID and CreatedAt.
// The movie reference is copied from the show inside the same INSERT
// so the ledger row is self-contained.
func (r *BookingRepo) Record(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, show_id, movie_id, total_cents, payment_status, payment_method, transaction_id)
		 SELECT ?, s.id, s.movie_id, ?, ?, ?, ?
		 FROM shows s WHERE s.id = ?`,
		b.UserID, b.TotalCents, b.PaymentStatus, b.PaymentMethod, b.TransactionID, b.ShowID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrShowNotFound
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(b.Seats) > 0 {
		query := `INSERT INTO booking_seats (booking_id, position, row_label, seat_number, price_cents) VALUES `
		args := make([]interface{}, 0, len(b.Seats)*5)
		for i, s := range b.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, b.ID, i, s.RowLabel, s.SeatNumber, s.PriceCents)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT movie_id, created_at FROM bookings WHERE id = ?`, b.ID,
	).Scan(&b.MovieID, &b.CreatedAt); err != nil {
		return err
	}
	b.CreatedAt = b.CreatedAt.UTC()

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UnappliedSeatRefs lists the seats of CONFIRMED bookings that are not
// currently BOOKED in their show's seat map, grouped per booking.  A
// non-empty result means the process died between the ledger write and
// the seat flip; the engine repairs the map from it.
func (r *BookingRepo) UnappliedSeatRefs(ctx context.Context) ([]reservation.SeatRef, error) {
	const q = `SELECT b.id, b.show_id, b.user_id, bs.row_label, bs.seat_number
	           FROM bookings b
	           JOIN booking_seats bs ON bs.booking_id = b.id
	           JOIN show_seats ss ON ss.show_id = b.show_id
	             AND ss.row_label = bs.row_label AND ss.seat_number = bs.seat_number
	           WHERE b.payment_status = 'CONFIRMED' AND ss.status <> 'BOOKED'
	           ORDER BY b.id, bs.position`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []reservation.SeatRef
	var lastID uint64
	for rows.Next() {
		var (
			bookingID, showID, userID uint64
			seat                      model.BookingSeat
		)
		if err := rows.Scan(&bookingID, &showID, &userID, &seat.RowLabel, &seat.SeatNumber); err != nil {
			return nil, err
		}
		if bookingID != lastID {
			refs = append(refs, reservation.SeatRef{ShowID: showID, UserID: userID})
			lastID = bookingID
		}
		refs[len(refs)-1].Labels = append(refs[len(refs)-1].Labels, seat.Label())
	}
	return refs, rows.Err()
}

// scanBookings reads booking rows for the given query, then attaches
// each booking's seats with a second IN query.
func (r *BookingRepo) scanBookings(ctx context.Context, query string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	index := make(map[uint64]int)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowID, &b.MovieID, &b.TotalCents,
			&b.PaymentStatus, &b.PaymentMethod, &b.TransactionID, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		index[b.ID] = len(bookings)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	seatQ := `SELECT booking_id, row_label, seat_number, price_cents
	          FROM booking_seats WHERE booking_id IN (`
	seatArgs := make([]interface{}, 0, len(bookings))
	for i, b := range bookings {
		if i > 0 {
			seatQ += ","
		}
		seatQ += "?"
		seatArgs = append(seatArgs, b.ID)
	}
	seatQ += `) ORDER BY booking_id, position`

	seatRows, err := r.db.QueryContext(ctx, seatQ, seatArgs...)
	if err != nil {
		return nil, err
	}
	defer seatRows.Close()
	for seatRows.Next() {
		var (
			bookingID uint64
			s         model.BookingSeat
		)
		if err := seatRows.Scan(&bookingID, &s.RowLabel, &s.SeatNumber, &s.PriceCents); err != nil {
			return nil, err
		}
		i := index[bookingID]
		bookings[i].Seats = append(bookings[i].Seats, s)
	}
	return bookings, seatRows.Err()
}

// ListByUser returns the user's bookings newest first, seats included.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, show_id, movie_id, total_cents,
	                  payment_status, payment_method, transaction_id, created_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.scanBookings(ctx, q, userID)
}

// GetByIDForUser returns one booking, enforcing ownership.  A booking
// that exists but belongs to someone else is reported as not found so
// the endpoint does not leak booking IDs.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, show_id, movie_id, total_cents,
	                  payment_status, payment_method, transaction_id, created_at
	           FROM bookings WHERE id = ? AND user_id = ?`
	bookings, err := r.scanBookings(ctx, q, id, userID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}
	return &bookings[0], nil
}

// ListByShow returns every booking for a show, newest first.  Admin
// reporting only.
func (r *BookingRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, show_id, movie_id, total_cents,
	                  payment_status, payment_method, transaction_id, created_at
	           FROM bookings WHERE show_id = ? ORDER BY created_at DESC, id DESC`
	return r.scanBookings(ctx, q, showID)
}
