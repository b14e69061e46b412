package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/silverscreen/movie-booking/internal/model"
)

// MovieRepo provides access to the 'movies' table.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and returns it with ID and timestamps filled.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, description, duration_min, rating) VALUES (?, ?, ?, ?)`,
		m.Title, m.Description, m.DurationMin, m.Rating)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM movies WHERE id = ?`, m.ID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

// GetByID fetches one movie or ErrMovieNotFound.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, duration_min, rating, created_at, updated_at
		 FROM movies WHERE id = ?`, id,
	).Scan(&m.ID, &m.Title, &m.Description, &m.DurationMin, &m.Rating, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the full catalog ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, duration_min, rating, created_at, updated_at
		 FROM movies ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movies []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.DurationMin,
			&m.Rating, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}
