package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/silverscreen/movie-booking/internal/model"
	"github.com/silverscreen/movie-booking/internal/queue"
	"github.com/silverscreen/movie-booking/internal/repository"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

// PublishFunc sends a booking confirmation to the broker.  Injected so
// tests can run without RabbitMQ.
type PublishFunc func(ctx context.Context, event queue.BookingConfirmedEvent) error

// ShowGetter is the slice of the show repository the booking flow
// needs.
type ShowGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
}

// BookingHandler serves the customer reservation flow: reserve seats,
// confirm the hold into a booking, release a hold, and read bookings
// back.
type BookingHandler struct {
	Engine   *reservation.Engine
	Bookings *repository.BookingRepo
	Shows    ShowGetter
	Publish  PublishFunc
	Log      *logrus.Logger
}

func NewBookingHandler(e *reservation.Engine, b *repository.BookingRepo, s ShowGetter, publish PublishFunc, log *logrus.Logger) *BookingHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BookingHandler{Engine: e, Bookings: b, Shows: s, Publish: publish, Log: log}
}

type reserveReq struct {
	SeatLabels []string `json:"seat_labels"`
}

type confirmReq struct {
	HoldToken     string `json:"hold_token"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
}

type releaseReq struct {
	HoldToken string `json:"hold_token"`
}

// Reserve places an all-or-nothing hold on the requested seats of the
// show.  The response carries the hold token the client must present
// to confirm or release.
func (h *BookingHandler) Reserve(c echo.Context) error {
	showID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body"})
	}
	if _, err := h.Shows.GetByID(c.Request().Context(), showID); err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "show_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}

	handle, err := h.Engine.Reserve(c.Request().Context(), showID, currentUserID(c), req.SeatLabels)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusCreated, handle)
}

// Confirm finalises a hold into a booking with mocked payment details
// and publishes a booking.confirmed event on success.
func (h *BookingHandler) Confirm(c echo.Context) error {
	showID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.HoldToken) == "" {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body", Message: "hold_token required"})
	}
	ctx := c.Request().Context()
	userID := currentUserID(c)

	handle, err := h.Engine.Resume(ctx, showID, userID, strings.TrimSpace(req.HoldToken))
	if err != nil {
		return reservationError(c, err)
	}
	booking, err := h.Engine.Commit(ctx, handle, reservation.Payment{
		Method:        req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return reservationError(c, err)
	}

	if h.Publish != nil {
		show, showErr := h.Shows.GetByID(ctx, showID)
		event := queue.BookingConfirmedEvent{
			BookingID:     booking.ID,
			UserID:        booking.UserID,
			ShowID:        booking.ShowID,
			SeatLabels:    handle.Labels,
			TotalCents:    booking.TotalCents,
			TransactionID: booking.TransactionID,
			ConfirmedAt:   booking.CreatedAt.Format(time.RFC3339),
		}
		if showErr == nil {
			event.MovieTitle = show.MovieTitle
			event.TheatreName = show.TheatreName
			event.ScreenName = show.ScreenName
			event.StartsAt = show.StartsAt.Format(time.RFC3339)
		}
		// Fire and forget: the booking is already durable.
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.Publish(pubCtx, event); err != nil {
				h.Log.WithError(err).WithField("booking_id", event.BookingID).
					Warn("booking.confirmed publish failed")
			}
		}()
	}
	return c.JSON(http.StatusCreated, booking)
}

// Release voluntarily frees a hold.  Releasing an expired or already
// released hold succeeds with zero seats freed.
func (h *BookingHandler) Release(c echo.Context) error {
	showID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	var req releaseReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.HoldToken) == "" {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_body", Message: "hold_token required"})
	}
	handle := &reservation.Handle{
		ShowID: showID,
		UserID: currentUserID(c),
		Token:  strings.TrimSpace(req.HoldToken),
	}
	released, err := h.Engine.Release(c.Request().Context(), handle)
	if err != nil {
		return reservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// ListMyBookings returns the caller's bookings, newest first.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	bookings, err := h.Bookings.ListByUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// GetBooking returns one of the caller's bookings by ID.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errResp{Error: "invalid_id"})
	}
	b, err := h.Bookings.GetByIDForUser(c.Request().Context(), id, currentUserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, errResp{Error: "booking_not_found"})
		}
		return c.JSON(http.StatusInternalServerError, errResp{Error: "persistence"})
	}
	return c.JSON(http.StatusOK, b)
}
