package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/silverscreen/movie-booking/internal/model"
	"github.com/silverscreen/movie-booking/internal/repository"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

// AdminShowHandler serves the admin scheduling endpoints.  Creating a
// show materializes its seat map from the screen's layout in the same
// transaction as the show row.
type AdminShowHandler struct {
	Shows    *repository.ShowRepo
	Movies   *repository.MovieRepo
	Theatres *repository.TheatreRepo
	Bookings *repository.BookingRepo
}

func NewAdminShowHandler(s *repository.ShowRepo, m *repository.MovieRepo, t *repository.TheatreRepo, b *repository.BookingRepo) *AdminShowHandler {
	return &AdminShowHandler{Shows: s, Movies: m, Theatres: t, Bookings: b}
}

type createShowReq struct {
	MovieID    uint64    `json:"movie_id"`
	ScreenID   uint64    `json:"screen_id"`
	StartsAt   time.Time `json:"starts_at"`
	PriceCents uint32    `json:"price_cents"` // 0 means use the screen's base price
}

// CreateShow schedules a screening.  The end time is derived from the
// movie's duration; overlapping schedules on the same screen are
// rejected with 409.
func (h *AdminShowHandler) CreateShow(c echo.Context) error {
	var req createShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body"})
	}
	if req.MovieID == 0 || req.ScreenID == 0 || req.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body", Message: "movie_id, screen_id and starts_at required"})
	}
	ctx := c.Request().Context()

	movie, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "movie_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	screen, err := h.Theatres.GetScreen(ctx, req.ScreenID)
	if err != nil {
		if errors.Is(err, repository.ErrScreenNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "screen_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}

	price := req.PriceCents
	if price == 0 {
		price = screen.BasePriceCents
	}
	seats, err := reservation.GenerateSeatMap(int(screen.Rows), int(screen.Cols), price)
	if err != nil {
		return reservationError(c, err)
	}

	show := &model.Show{
		MovieID:    req.MovieID,
		ScreenID:   req.ScreenID,
		StartsAt:   req.StartsAt.UTC(),
		EndsAt:     req.StartsAt.UTC().Add(time.Duration(movie.DurationMin) * time.Minute),
		PriceCents: price,
	}
	if err := h.Shows.CreateWithSeats(ctx, show, seats); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, errResp{Error: "schedule_conflict", Message: "screen already booked for that time"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence", Message: "create show failed"})
	}
	show.MovieTitle = movie.Title
	show.ScreenName = screen.Name
	return c.JSON(http.StatusCreated, show)
}

// ListShowBookings returns every booking of a show for reporting.
func (h *AdminShowHandler) ListShowBookings(c echo.Context) error {
	showID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	if _, err := h.Shows.GetByID(c.Request().Context(), showID); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "show_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	bookings, err := h.Bookings.ListByShow(c.Request().Context(), showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
