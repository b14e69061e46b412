package reservation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemorySeatStore is an in-memory SeatStore guarded by a single mutex.
// It is the reference implementation of the store's atomicity contract
// (all-or-nothing holds, conditional transitions) and backs the engine
// tests; production deployments use the MySQL store in the repository
// package.
type MemorySeatStore struct {
	mu    sync.Mutex
	shows map[uint64]map[string]*memorySeat
}

type memorySeat struct {
	seat      Seat
	holderID  uint64
	holdToken string
	holdPos   int
	expiresAt time.Time
}

// NewMemorySeatStore returns an empty store.  Shows are registered with
// AddShow before seats can be claimed.
func NewMemorySeatStore() *MemorySeatStore {
	return &MemorySeatStore{shows: make(map[uint64]map[string]*memorySeat)}
}

// AddShow registers a show's seat map, typically the output of
// GenerateSeatMap.
func (m *MemorySeatStore) AddShow(showID uint64, seats []Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel := make(map[string]*memorySeat, len(seats))
	for _, s := range seats {
		byLabel[s.Label()] = &memorySeat{seat: s}
	}
	m.shows[showID] = byLabel
}

// expireLocked releases lapsed holds for one show.  Callers hold mu.
func (m *MemorySeatStore) expireLocked(byLabel map[string]*memorySeat, now time.Time) int {
	n := 0
	for _, ms := range byLabel {
		if ms.seat.State == StateHeld && !ms.expiresAt.After(now) {
			ms.seat.State = StateAvailable
			ms.holderID = 0
			ms.holdToken = ""
			ms.holdPos = 0
			ms.expiresAt = time.Time{}
			n++
		}
	}
	return n
}

func (m *MemorySeatStore) Snapshot(_ context.Context, showID uint64) ([]Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.shows[showID]
	if !ok {
		return nil, fmt.Errorf("show %d not found", showID)
	}
	out := make([]Seat, 0, len(byLabel))
	for _, ms := range byLabel {
		out = append(out, ms.seat)
	}
	return out, nil
}

func (m *MemorySeatStore) HoldSeats(_ context.Context, showID, userID uint64, labels []string, token string, expiresAt time.Time) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.shows[showID]
	if !ok {
		return 0, ErrUnknownSeat
	}
	m.expireLocked(byLabel, time.Now().UTC())
	// Validate everything before mutating anything: the hold is
	// all-or-nothing.
	var total uint32
	for _, l := range labels {
		ms, ok := byLabel[l]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownSeat, l)
		}
		if ms.seat.State != StateAvailable {
			return 0, fmt.Errorf("%w: %s", ErrSeatUnavailable, l)
		}
		total += ms.seat.PriceCents
	}
	for i, l := range labels {
		ms := byLabel[l]
		ms.seat.State = StateHeld
		ms.holderID = userID
		ms.holdToken = token
		ms.holdPos = i + 1
		ms.expiresAt = expiresAt
	}
	return total, nil
}

func (m *MemorySeatStore) HeldSeats(_ context.Context, showID, userID uint64, token string) ([]Seat, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.shows[showID]
	if !ok {
		return nil, time.Time{}, nil
	}
	now := time.Now().UTC()
	var held []*memorySeat
	var expiresAt time.Time
	for _, ms := range byLabel {
		if ms.seat.State == StateHeld && ms.holderID == userID && ms.holdToken == token && ms.expiresAt.After(now) {
			held = append(held, ms)
			expiresAt = ms.expiresAt
		}
	}
	// Claim order, so a rebuilt handle keeps the user's selection order.
	sort.Slice(held, func(i, j int) bool { return held[i].holdPos < held[j].holdPos })
	seats := make([]Seat, 0, len(held))
	for _, ms := range held {
		seats = append(seats, ms.seat)
	}
	return seats, expiresAt, nil
}

func (m *MemorySeatStore) BookHeldSeats(_ context.Context, showID, userID uint64, token string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.shows[showID]
	if !ok {
		return 0, nil
	}
	now := time.Now().UTC()
	n := 0
	for _, ms := range byLabel {
		if ms.seat.State == StateHeld && ms.holderID == userID && ms.holdToken == token && ms.expiresAt.After(now) {
			ms.seat.State = StateBooked
			ms.holdToken = ""
			ms.holdPos = 0
			ms.expiresAt = time.Time{}
			n++
		}
	}
	return n, nil
}

func (m *MemorySeatStore) ReleaseHeldSeats(_ context.Context, showID, userID uint64, token string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.shows[showID]
	if !ok {
		return 0, nil
	}
	n := 0
	for _, ms := range byLabel {
		if ms.seat.State == StateHeld && ms.holderID == userID && ms.holdToken == token {
			ms.seat.State = StateAvailable
			ms.holderID = 0
			ms.holdToken = ""
			ms.holdPos = 0
			ms.expiresAt = time.Time{}
			n++
		}
	}
	return n, nil
}

func (m *MemorySeatStore) ExpireStaleHolds(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	n := 0
	for _, byLabel := range m.shows {
		n += m.expireLocked(byLabel, now)
	}
	return n, nil
}

func (m *MemorySeatStore) ForceBooked(_ context.Context, showID, userID uint64, labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLabel, ok := m.shows[showID]
	if !ok {
		return fmt.Errorf("show %d not found", showID)
	}
	for _, l := range labels {
		ms, ok := byLabel[l]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSeat, l)
		}
		if ms.seat.State != StateBooked {
			ms.seat.State = StateBooked
			ms.holderID = userID
			ms.holdToken = ""
			ms.holdPos = 0
			ms.expiresAt = time.Time{}
		}
	}
	return nil
}
