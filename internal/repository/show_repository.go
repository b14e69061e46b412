package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/silverscreen/movie-booking/internal/model"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

// ShowRepo provides access to the 'shows' table and materializes each
// show's seat map at creation time.
type ShowRepo struct {
	db    *sql.DB
	seats *SeatStoreRepo
}

// NewShowRepo constructs a ShowRepo sharing the seat store so a show
// and its seats are created in one transaction.
func NewShowRepo(db *sql.DB, seats *SeatStoreRepo) *ShowRepo {
	return &ShowRepo{db: db, seats: seats}
}

// CreateWithSeats schedules a show and bulk-inserts its seat map in a
// single transaction.  The layout comes from the screen; seats is the
// generated map (reservation.GenerateSeatMap output).  Overlapping
// schedules on the same screen are rejected with ErrConflict.
func (r *ShowRepo) CreateWithSeats(ctx context.Context, s *model.Show, seats []reservation.Seat) error {
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

	// Two shows overlap when one starts before the other ends.  Checked
	// inside the transaction so concurrent schedulers serialize on the
	// screen's rows.
	var overlapping int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shows
		 WHERE screen_id = ? AND starts_at < ? AND ends_at > ?
		 FOR UPDATE`,
		s.ScreenID, s.EndsAt, s.StartsAt,
	).Scan(&overlapping); err != nil {
		return err
	}
	if overlapping > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO shows (movie_id, screen_id, starts_at, ends_at, price_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		s.MovieID, s.ScreenID, s.StartsAt, s.EndsAt, s.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	if err := r.seats.CreateForShowTx(ctx, tx, s.ID, seats); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM shows WHERE id = ?`, s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches one show with its joined display fields or
// ErrShowNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	var s model.Show
	err := r.db.QueryRowContext(ctx,
		`SELECT sh.id, sh.movie_id, sh.screen_id, sh.starts_at, sh.ends_at, sh.price_cents,
		        m.title, t.name, sc.name, sh.created_at, sh.updated_at
		 FROM shows sh
		 JOIN movies m ON m.id = sh.movie_id
		 JOIN screens sc ON sc.id = sh.screen_id
		 JOIN theatres t ON t.id = sc.theatre_id
		 WHERE sh.id = ?`, id,
	).Scan(&s.ID, &s.MovieID, &s.ScreenID, &s.StartsAt, &s.EndsAt, &s.PriceCents,
		&s.MovieTitle, &s.TheatreName, &s.ScreenName, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	s.StartsAt = s.StartsAt.UTC()
	s.EndsAt = s.EndsAt.UTC()
	return &s, nil
}

// ListUpcoming returns shows starting after the given time, optionally
// filtered to one movie, soonest first.
func (r *ShowRepo) ListUpcoming(ctx context.Context, movieID uint64, after time.Time) ([]model.Show, error) {
	query := `SELECT sh.id, sh.movie_id, sh.screen_id, sh.starts_at, sh.ends_at, sh.price_cents,
	                 m.title, t.name, sc.name, sh.created_at, sh.updated_at
	          FROM shows sh
	          JOIN movies m ON m.id = sh.movie_id
	          JOIN screens sc ON sc.id = sh.screen_id
	          JOIN theatres t ON t.id = sc.theatre_id
	          WHERE sh.starts_at > ?`
	args := []interface{}{after}
	if movieID != 0 {
		query += ` AND sh.movie_id = ?`
		args = append(args, movieID)
	}
	query += ` ORDER BY sh.starts_at, sh.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var shows []model.Show
	for rows.Next() {
		var s model.Show
		if err := rows.Scan(&s.ID, &s.MovieID, &s.ScreenID, &s.StartsAt, &s.EndsAt, &s.PriceCents,
			&s.MovieTitle, &s.TheatreName, &s.ScreenName, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.StartsAt = s.StartsAt.UTC()
		s.EndsAt = s.EndsAt.UTC()
		shows = append(shows, s)
	}
	return shows, rows.Err()
}
