// Package handler contains the HTTP handlers.  Handlers validate and
// bind input, delegate to the reservation engine or repositories, and
// translate domain errors into HTTP responses.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/silverscreen/movie-booking/internal/middleware"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

// currentUserID reads the authenticated user's ID stored by the JWT
// middleware.  Returns zero on unauthenticated requests.
func currentUserID(c echo.Context) uint64 {
	v, _ := c.Get(middleware.CtxUserID).(uint64)
	return v
}

// errResp is the uniform error body: a stable machine-readable kind
// plus a human message.
type errResp struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// reservationError maps the reservation error taxonomy onto HTTP
// responses.  Contention and expiry are client-visible conditions, not
// server faults; only persistence and inconsistency surface as 5xx.
func reservationError(c echo.Context, err error) error {
	var inc *reservation.InconsistencyError
	switch {
	case errors.Is(err, reservation.ErrInvalidLayout):
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_layout", Message: err.Error()})
	case errors.Is(err, reservation.ErrInvalidSelection):
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_selection", Message: err.Error()})
	case errors.Is(err, reservation.ErrUnknownSeat):
		return c.JSON(http.StatusNotFound, errResp{Error: "unknown_seat", Message: err.Error()})
	case errors.Is(err, reservation.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, errResp{Error: "seat_unavailable", Message: err.Error()})
	case errors.Is(err, reservation.ErrHoldExpired):
		return c.JSON(http.StatusConflict, errResp{Error: "hold_expired", Message: err.Error()})
	case errors.Is(err, reservation.ErrNoActiveHold):
		return c.JSON(http.StatusNotFound, errResp{Error: "no_active_hold", Message: err.Error()})
	case errors.As(err, &inc):
		return c.JSON(http.StatusInternalServerError, errResp{Error: "inconsistency", Message: "booking recorded, seat state repair pending"})
	default:
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence", Message: "operation failed"})
	}
}
