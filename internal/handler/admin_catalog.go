package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/silverscreen/movie-booking/internal/model"
	"github.com/silverscreen/movie-booking/internal/repository"
)

// AdminCatalogHandler serves the admin-only catalog mutations: movies,
// theatres and screens.
type AdminCatalogHandler struct {
	Movies   *repository.MovieRepo
	Theatres *repository.TheatreRepo
}

func NewAdminCatalogHandler(m *repository.MovieRepo, t *repository.TheatreRepo) *AdminCatalogHandler {
	return &AdminCatalogHandler{Movies: m, Theatres: t}
}

type createMovieReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationMin uint32 `json:"duration_min"`
	Rating      string `json:"rating"`
}

// CreateMovie adds a catalog entry.
func (h *AdminCatalogHandler) CreateMovie(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body", Message: "title and duration_min required"})
	}
	m := &model.Movie{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		DurationMin: req.DurationMin,
		Rating:      strings.TrimSpace(req.Rating),
	}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence", Message: "create movie failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

type createTheatreReq struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// CreateTheatre adds a venue.
func (h *AdminCatalogHandler) CreateTheatre(c echo.Context) error {
	var req createTheatreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body", Message: "name and city required"})
	}
	t := &model.Theatre{Name: req.Name, City: req.City, Address: strings.TrimSpace(req.Address)}
	if err := h.Theatres.CreateTheatre(c.Request().Context(), t); err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence", Message: "create theatre failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

type createScreenReq struct {
	Name           string `json:"name"`
	Rows           uint32 `json:"rows"`
	Cols           uint32 `json:"cols"`
	BasePriceCents uint32 `json:"base_price_cents"`
}

// CreateScreen adds an auditorium under the theatre in the path.  The
// layout is validated here, at definition time, so show creation can
// assume a generatable seat map.
func (h *AdminCatalogHandler) CreateScreen(c echo.Context) error {
	theatreID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	var req createScreenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body", Message: "name required"})
	}
	if req.Rows < 1 || req.Rows > 26 || req.Cols < 1 {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_layout", Message: "rows must be 1-26 and cols at least 1"})
	}
	s := &model.Screen{
		TheatreID:      theatreID,
		Name:           req.Name,
		Rows:           req.Rows,
		Cols:           req.Cols,
		BasePriceCents: req.BasePriceCents,
	}
	if err := h.Theatres.CreateScreen(c.Request().Context(), s); err != nil {
		if errors.Is(err, repository.ErrTheatreNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "theatre_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence", Message: "create screen failed"})
	}
	return c.JSON(http.StatusCreated, s)
}
