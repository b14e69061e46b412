package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/silverscreen/movie-booking/internal/repository"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

// BrowseHandler serves the unauthenticated catalog and availability
// endpoints.
type BrowseHandler struct {
	Movies   *repository.MovieRepo
	Theatres *repository.TheatreRepo
	Shows    *repository.ShowRepo
	Engine   *reservation.Engine
}

func NewBrowseHandler(m *repository.MovieRepo, t *repository.TheatreRepo, s *repository.ShowRepo, e *reservation.Engine) *BrowseHandler {
	return &BrowseHandler{Movies: m, Theatres: t, Shows: s, Engine: e}
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// ListMovies returns the whole catalog.
func (h *BrowseHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

// GetMovie returns one catalog entry.
func (h *BrowseHandler) GetMovie(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "movie_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, m)
}

// ListTheatres returns all venues.
func (h *BrowseHandler) ListTheatres(c echo.Context) error {
	theatres, err := h.Theatres.ListTheatres(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"theatres": theatres})
}

// ListScreens returns the screens of one theatre.
func (h *BrowseHandler) ListScreens(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	if _, err := h.Theatres.GetTheatre(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrTheatreNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "theatre_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	screens, err := h.Theatres.ListScreens(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"screens": screens})
}

// ListShows returns upcoming shows, optionally filtered by movie_id.
func (h *BrowseHandler) ListShows(c echo.Context) error {
	var movieID uint64
	if s := c.QueryParam("movie_id"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id", Message: "movie_id must be numeric"})
		}
		movieID = n
	}
	shows, err := h.Shows.ListUpcoming(c.Request().Context(), movieID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// ListShowsForMovie returns a movie's upcoming shows.
func (h *BrowseHandler) ListShowsForMovie(c echo.Context) error {
	movieID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	if _, err := h.Movies.GetByID(c.Request().Context(), movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "movie_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	shows, err := h.Shows.ListUpcoming(c.Request().Context(), movieID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// GetShow returns one show with joined display fields.
func (h *BrowseHandler) GetShow(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	s, err := h.Shows.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "show_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, s)
}

// GetShowSeats returns the live seat availability snapshot.  HELD and
// BOOKED seats are visible as such but never attributed to a user.
func (h *BrowseHandler) GetShowSeats(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	if _, err := h.Shows.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "show_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	seats, err := h.Engine.Snapshot(c.Request().Context(), id)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "seats": seats})
}
