package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/silverscreen/movie-booking/internal/model"
)

// TheatreRepo provides access to the 'theatres' and 'screens' tables.
// Screens live here rather than in their own repository because every
// screen operation is scoped to its theatre.
type TheatreRepo struct {
	db *sql.DB
}

// NewTheatreRepo constructs a TheatreRepo with the given DB handle.
func NewTheatreRepo(db *sql.DB) *TheatreRepo { return &TheatreRepo{db: db} }

// CreateTheatre inserts a theatre and fills its ID and timestamps.
func (r *TheatreRepo) CreateTheatre(ctx context.Context, t *model.Theatre) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO theatres (name, city, address) VALUES (?, ?, ?)`,
		t.Name, t.City, t.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM theatres WHERE id = ?`, t.ID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetTheatre fetches one theatre or ErrTheatreNotFound.
func (r *TheatreRepo) GetTheatre(ctx context.Context, id uint64) (*model.Theatre, error) {
	var t model.Theatre
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, city, address, created_at, updated_at FROM theatres WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.City, &t.Address, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTheatreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTheatres returns all theatres ordered by city then name.
func (r *TheatreRepo) ListTheatres(ctx context.Context) ([]model.Theatre, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, city, address, created_at, updated_at
		 FROM theatres ORDER BY city, name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var theatres []model.Theatre
	for rows.Next() {
		var t model.Theatre
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		theatres = append(theatres, t)
	}
	return theatres, rows.Err()
}

// CreateScreen inserts a screen under its theatre and fills ID and
// timestamps.  The theatre must exist.
func (r *TheatreRepo) CreateScreen(ctx context.Context, s *model.Screen) error {
	if _, err := r.GetTheatre(ctx, s.TheatreID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO screens (theatre_id, name, seat_rows, seat_cols, base_price_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		s.TheatreID, s.Name, s.Rows, s.Cols, s.BasePriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM screens WHERE id = ?`, s.ID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetScreen fetches one screen or ErrScreenNotFound.
func (r *TheatreRepo) GetScreen(ctx context.Context, id uint64) (*model.Screen, error) {
	var s model.Screen
	err := r.db.QueryRowContext(ctx,
		`SELECT id, theatre_id, name, seat_rows, seat_cols, base_price_cents, created_at, updated_at
		 FROM screens WHERE id = ?`, id,
	).Scan(&s.ID, &s.TheatreID, &s.Name, &s.Rows, &s.Cols, &s.BasePriceCents, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScreens returns a theatre's screens ordered by name.
func (r *TheatreRepo) ListScreens(ctx context.Context, theatreID uint64) ([]model.Screen, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, theatre_id, name, seat_rows, seat_cols, base_price_cents, created_at, updated_at
		 FROM screens WHERE theatre_id = ? ORDER BY name, id`, theatreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var screens []model.Screen
	for rows.Next() {
		var s model.Screen
		if err := rows.Scan(&s.ID, &s.TheatreID, &s.Name, &s.Rows, &s.Cols,
			&s.BasePriceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		screens = append(screens, s)
	}
	return screens, rows.Err()
}
