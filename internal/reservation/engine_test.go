package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silverscreen/movie-booking/internal/model"
)

// fakeLedger is an in-memory Ledger with switchable failure for the
// compensation tests.
type fakeLedger struct {
	mu         sync.Mutex
	nextID     uint64
	bookings   []model.Booking
	failRecord error
	refs       []SeatRef
}

func (f *fakeLedger) Record(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecord != nil {
		return f.failRecord
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now().UTC()
	f.bookings = append(f.bookings, *b)
	return nil
}

func (f *fakeLedger) UnappliedSeatRefs(_ context.Context) ([]SeatRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs, nil
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *MemorySeatStore, *fakeLedger) {
	t.Helper()
	store := NewMemorySeatStore()
	seats, err := GenerateSeatMap(2, 3, 100)
	require.NoError(t, err)
	store.AddShow(1, seats)
	ledger := &fakeLedger{}
	return NewEngine(store, ledger, cfg, nil), store, ledger
}

func snapshotStates(t *testing.T, e *Engine, showID uint64) map[string]SeatState {
	t.Helper()
	seats, err := e.Snapshot(context.Background(), showID)
	require.NoError(t, err)
	out := make(map[string]SeatState, len(seats))
	for _, s := range seats {
		out[s.Label()] = s.State
	}
	return out
}

func TestReserveAndCommitHappyPath(t *testing.T) {
	e, _, ledger := newTestEngine(t, Config{})
	ctx := context.Background()

	h, err := e.Reserve(ctx, 1, 42, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, h.Labels)
	assert.Equal(t, uint32(200), h.TotalCents)
	assert.NotEmpty(t, h.Token)
	assert.True(t, h.ExpiresAt.After(time.Now().UTC()))

	states := snapshotStates(t, e, 1)
	assert.Equal(t, StateHeld, states["A1"])
	assert.Equal(t, StateHeld, states["A2"])
	assert.Equal(t, StateAvailable, states["A3"])

	b, err := e.Commit(ctx, h, Payment{Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.UserID)
	assert.Equal(t, uint64(1), b.ShowID)
	assert.Equal(t, uint32(200), b.TotalCents)
	assert.Equal(t, model.PaymentConfirmed, b.PaymentStatus)
	assert.NotEmpty(t, b.TransactionID)
	require.Len(t, b.Seats, 2)
	assert.Equal(t, "A1", b.Seats[0].Label())
	assert.Equal(t, "A2", b.Seats[1].Label())
	require.Len(t, ledger.bookings, 1)

	states = snapshotStates(t, e, 1)
	assert.Equal(t, StateBooked, states["A1"])
	assert.Equal(t, StateBooked, states["A2"])
	assert.Equal(t, StateAvailable, states["B3"])
}

func TestCommitPreservesSelectionOrder(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	h, err := e.Reserve(ctx, 1, 7, []string{"B2", "A1"})
	require.NoError(t, err)
	b, err := e.Commit(ctx, h, Payment{})
	require.NoError(t, err)
	require.Len(t, b.Seats, 2)
	assert.Equal(t, "B2", b.Seats[0].Label())
	assert.Equal(t, "A1", b.Seats[1].Label())
}

func TestResumeKeepsSelectionOrder(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	picked := []string{"B3", "B1", "A2", "A1", "B2"}
	h, err := e.Reserve(ctx, 1, 7, picked)
	require.NoError(t, err)

	// A rebuilt handle must carry the selection order, not the store's
	// grid order, so committing through it keeps the seats as picked.
	resumed, err := e.Resume(ctx, 1, 7, h.Token)
	require.NoError(t, err)
	assert.Equal(t, picked, resumed.Labels)

	b, err := e.Commit(ctx, resumed, Payment{})
	require.NoError(t, err)
	require.Len(t, b.Seats, len(picked))
	for i, want := range picked {
		assert.Equal(t, want, b.Seats[i].Label())
	}
}

func TestReserveAllOrNothing(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	_, err := e.Reserve(ctx, 1, 1, []string{"A1"})
	require.NoError(t, err)

	// A1 is held, so the pair request must fail without touching A3.
	_, err = e.Reserve(ctx, 1, 2, []string{"A1", "A3"})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.Equal(t, StateAvailable, snapshotStates(t, e, 1)["A3"])

	_, err = e.Reserve(ctx, 1, 2, []string{"A3"})
	assert.NoError(t, err)
}

func TestReserveValidation(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	_, err := e.Reserve(ctx, 1, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = e.Reserve(ctx, 1, 1, []string{"A1", "A2", "A3", "B1", "B2", "B3"})
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = e.Reserve(ctx, 1, 1, []string{"not-a-seat"})
	assert.ErrorIs(t, err, ErrUnknownSeat)

	// Parses fine but is outside the 2x3 grid.
	_, err = e.Reserve(ctx, 1, 1, []string{"Z9"})
	assert.ErrorIs(t, err, ErrUnknownSeat)

	// Duplicates collapse to a single seat.
	h, err := e.Reserve(ctx, 1, 1, []string{"a1", "A1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, h.Labels)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan uint64, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			if _, err := e.Reserve(context.Background(), 1, userID, []string{"B1"}); err == nil {
				wins <- userID
			}
		}(uint64(i + 1))
	}
	wg.Wait()
	close(wins)

	var winners []uint64
	for w := range wins {
		winners = append(winners, w)
	}
	assert.Len(t, winners, 1, "exactly one attempt must claim the seat")
	assert.Equal(t, StateHeld, snapshotStates(t, e, 1)["B1"])
}

func TestResume(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	h, err := e.Reserve(ctx, 1, 5, []string{"A2", "B2"})
	require.NoError(t, err)

	got, err := e.Resume(ctx, 1, 5, h.Token)
	require.NoError(t, err)
	assert.ElementsMatch(t, h.Labels, got.Labels)
	assert.Equal(t, h.TotalCents, got.TotalCents)

	_, err = e.Resume(ctx, 1, 5, "no-such-token")
	assert.ErrorIs(t, err, ErrNoActiveHold)

	// A different user cannot resume someone else's hold.
	_, err = e.Resume(ctx, 1, 6, h.Token)
	assert.ErrorIs(t, err, ErrNoActiveHold)
}

func TestReleaseIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	h, err := e.Reserve(ctx, 1, 3, []string{"A1", "A2"})
	require.NoError(t, err)

	n, err := e.Release(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, StateAvailable, snapshotStates(t, e, 1)["A1"])

	n, err = e.Release(ctx, h)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = e.Commit(ctx, h, Payment{})
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestReleaseDoesNotTouchBookedSeats(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	ctx := context.Background()

	h, err := e.Reserve(ctx, 1, 3, []string{"A1"})
	require.NoError(t, err)
	_, err = e.Commit(ctx, h, Payment{})
	require.NoError(t, err)

	n, err := e.Release(ctx, h)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, StateBooked, snapshotStates(t, e, 1)["A1"])
}

func TestHoldExpiry(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{HoldTTL: 20 * time.Millisecond})
	ctx := context.Background()

	h, err := e.Reserve(ctx, 1, 8, []string{"A1", "A2"})
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = e.Commit(ctx, h, Payment{})
	assert.ErrorIs(t, err, ErrHoldExpired)

	n, err := e.ExpireStaleHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The seats are reclaimable by another user.
	_, err = e.Reserve(ctx, 1, 9, []string{"A1", "A2"})
	assert.NoError(t, err)
}

func TestCommitLedgerFailureCompensates(t *testing.T) {
	e, _, ledger := newTestEngine(t, Config{})
	ctx := context.Background()
	ledger.failRecord = assert.AnError

	h, err := e.Reserve(ctx, 1, 4, []string{"B1", "B2"})
	require.NoError(t, err)

	_, err = e.Commit(ctx, h, Payment{})
	assert.ErrorIs(t, err, ErrPersistence)

	// The compensating release returned the seats; no booking exists.
	states := snapshotStates(t, e, 1)
	assert.Equal(t, StateAvailable, states["B1"])
	assert.Equal(t, StateAvailable, states["B2"])
	assert.Empty(t, ledger.bookings)

	ledger.failRecord = nil
	h2, err := e.Reserve(ctx, 1, 5, []string{"B1", "B2"})
	require.NoError(t, err)
	_, err = e.Commit(ctx, h2, Payment{})
	assert.NoError(t, err)
}

func TestReconcileRepairsSeats(t *testing.T) {
	e, _, ledger := newTestEngine(t, Config{})
	ctx := context.Background()

	// A confirmed booking references seats the map never flipped, as
	// after a crash between the ledger write and the seat update.
	ledger.refs = []SeatRef{{ShowID: 1, UserID: 11, Labels: []string{"A3", "B3"}}}

	n, err := e.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	states := snapshotStates(t, e, 1)
	assert.Equal(t, StateBooked, states["A3"])
	assert.Equal(t, StateBooked, states["B3"])
}
