package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverscreen/movie-booking/internal/middleware"
	"github.com/silverscreen/movie-booking/internal/model"
	"github.com/silverscreen/movie-booking/internal/queue"
	"github.com/silverscreen/movie-booking/internal/repository"
	"github.com/silverscreen/movie-booking/internal/reservation"
)

type stubShows struct{}

func (stubShows) GetByID(_ context.Context, id uint64) (*model.Show, error) {
	if id != 1 {
		return nil, repository.ErrShowNotFound
	}
	return &model.Show{
		ID:          1,
		MovieID:     1,
		ScreenID:    1,
		MovieTitle:  "Night Train",
		TheatreName: "Grand Central",
		ScreenName:  "Screen 1",
		StartsAt:    time.Now().UTC().Add(time.Hour),
	}, nil
}

type stubLedger struct {
	mu       sync.Mutex
	nextID   uint64
	recorded []model.Booking
}

func (l *stubLedger) Record(_ context.Context, b *model.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	b.ID = l.nextID
	b.CreatedAt = time.Now().UTC()
	l.recorded = append(l.recorded, *b)
	return nil
}

func (l *stubLedger) UnappliedSeatRefs(_ context.Context) ([]reservation.SeatRef, error) {
	return nil, nil
}

type publishRecorder struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
}

func (p *publishRecorder) publish(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *publishRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newBookingHandler(t *testing.T) (*BookingHandler, *publishRecorder) {
	t.Helper()
	store := reservation.NewMemorySeatStore()
	seats, err := reservation.GenerateSeatMap(2, 3, 100)
	require.NoError(t, err)
	store.AddShow(1, seats)

	engine := reservation.NewEngine(store, &stubLedger{}, reservation.Config{}, nil)
	rec := &publishRecorder{}
	return NewBookingHandler(engine, nil, stubShows{}, rec.publish, nil), rec
}

func postCtx(path, showID, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)
	c.SetParamNames("id")
	c.SetParamValues(showID)
	c.Set(middleware.CtxUserID, userID)
	return c, rec
}

func reserveSeats(t *testing.T, h *BookingHandler, userID uint64, seats string) *reservation.Handle {
	t.Helper()
	c, rec := postCtx("/v1/shows/:id/reserve", "1", `{"seat_labels":[`+seats+`]}`, userID)
	require.NoError(t, h.Reserve(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var handle reservation.Handle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &handle))
	return &handle
}

func TestReserveReturnsHandle(t *testing.T) {
	h, _ := newBookingHandler(t)

	handle := reserveSeats(t, h, 42, `"A1","A2"`)
	assert.Equal(t, []string{"A1", "A2"}, handle.Labels)
	assert.Equal(t, uint32(200), handle.TotalCents)
	assert.NotEmpty(t, handle.Token)
}

func TestReserveContentionIsConflict(t *testing.T) {
	h, _ := newBookingHandler(t)
	reserveSeats(t, h, 42, `"A1"`)

	c, rec := postCtx("/v1/shows/:id/reserve", "1", `{"seat_labels":["A1","A3"]}`, 43)
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "seat_unavailable", body.Error)
}

func TestReserveUnknownSeat(t *testing.T) {
	h, _ := newBookingHandler(t)

	c, rec := postCtx("/v1/shows/:id/reserve", "1", `{"seat_labels":["Z9"]}`, 42)
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unknown_seat", body.Error)
}

func TestConfirmCreatesBookingAndPublishes(t *testing.T) {
	h, pub := newBookingHandler(t)
	handle := reserveSeats(t, h, 42, `"A1","A2"`)

	c, rec := postCtx("/v1/shows/:id/confirm", "1",
		`{"hold_token":"`+handle.Token+`","payment_method":"card"}`, 42)
	require.NoError(t, h.Confirm(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var booking model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	assert.Equal(t, uint64(42), booking.UserID)
	assert.Equal(t, uint32(200), booking.TotalCents)
	assert.Equal(t, model.PaymentConfirmed, booking.PaymentStatus)
	assert.NotEmpty(t, booking.TransactionID)

	// Publishing happens on a detached goroutine.
	require.Eventually(t, func() bool { return pub.count() == 1 },
		time.Second, 10*time.Millisecond)
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, booking.ID, pub.events[0].BookingID)
	assert.Equal(t, "Night Train", pub.events[0].MovieTitle)
	assert.Equal(t, []string{"A1", "A2"}, pub.events[0].SeatLabels)
}

func TestConfirmKeepsSelectionOrder(t *testing.T) {
	h, _ := newBookingHandler(t)
	handle := reserveSeats(t, h, 42, `"B3","B1","A2","A1","B2"`)
	require.Equal(t, []string{"B3", "B1", "A2", "A1", "B2"}, handle.Labels)

	// Confirm goes through the hold token alone, so the booking's seat
	// order must survive the round trip instead of falling back to grid
	// order.
	c, rec := postCtx("/v1/shows/:id/confirm", "1",
		`{"hold_token":"`+handle.Token+`"}`, 42)
	require.NoError(t, h.Confirm(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var booking model.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	require.Len(t, booking.Seats, 5)
	got := make([]string, 0, len(booking.Seats))
	for _, s := range booking.Seats {
		got = append(got, s.Label())
	}
	assert.Equal(t, []string{"B3", "B1", "A2", "A1", "B2"}, got)
}

func TestConfirmWithUnknownToken(t *testing.T) {
	h, pub := newBookingHandler(t)

	c, rec := postCtx("/v1/shows/:id/confirm", "1", `{"hold_token":"bogus"}`, 42)
	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no_active_hold", body.Error)
	assert.Zero(t, pub.count())
}

func TestReleaseIsIdempotent(t *testing.T) {
	h, _ := newBookingHandler(t)
	handle := reserveSeats(t, h, 42, `"B1","B2"`)

	c, rec := postCtx("/v1/shows/:id/reserve", "1", `{"hold_token":"`+handle.Token+`"}`, 42)
	require.NoError(t, h.Release(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":2}`, rec.Body.String())

	c, rec = postCtx("/v1/shows/:id/reserve", "1", `{"hold_token":"`+handle.Token+`"}`, 42)
	require.NoError(t, h.Release(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":0}`, rec.Body.String())

	// The freed seats are claimable by another user.
	reserveSeats(t, h, 43, `"B1","B2"`)
}

func TestReserveMissingShow(t *testing.T) {
	h, _ := newBookingHandler(t)

	c, rec := postCtx("/v1/shows/:id/reserve", "2", `{"seat_labels":["A1"]}`, 42)
	require.NoError(t, h.Reserve(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "show_not_found", body.Error)
}
