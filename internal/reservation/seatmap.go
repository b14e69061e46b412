package reservation

import (
	"strconv"
	"strings"
)

// SeatState is the lifecycle state of a single seat within a show.
// Transitions are AVAILABLE -> HELD -> BOOKED (terminal) or
// HELD -> AVAILABLE on release/expiry.  BOOKED never transitions back
// within this core.
type SeatState string

const (
	StateAvailable SeatState = "AVAILABLE"
	StateHeld      SeatState = "HELD"
	StateBooked    SeatState = "BOOKED"
)

// Seat is one bookable unit of a show's seat map.  Its identity within
// the show is the composite label RowLabel + SeatNumber (e.g. "A1").
// Holder attribution lives in the store, not here: snapshots handed to
// clients must never reveal who holds a seat.
type Seat struct {
	RowLabel   string    `json:"row_label"`
	SeatNumber uint32    `json:"seat_number"`
	State      SeatState `json:"state"`
	PriceCents uint32    `json:"price_cents"`
}

// Label returns the composite seat label, e.g. "B7".
func (s Seat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}

// maxRows caps the layout at single-letter rows A..Z.  Multi-letter row
// labels are a known limitation left out of scope.
const maxRows = 26

// GenerateSeatMap builds the full seat grid for a show: rows*cols seats
// labeled by row letter (A, B, C, ...) and 1-based column number, all
// starting AVAILABLE at the given price.  It returns ErrInvalidLayout
// when rows or cols is non-positive or rows exceeds 26.
func GenerateSeatMap(rows, cols int, priceCents uint32) ([]Seat, error) {
	if rows < 1 || cols < 1 || rows > maxRows {
		return nil, ErrInvalidLayout
	}
	seats := make([]Seat, 0, rows*cols)
	for r := 0; r < rows; r++ {
		label := string(rune('A' + r))
		for n := 1; n <= cols; n++ {
			seats = append(seats, Seat{
				RowLabel:   label,
				SeatNumber: uint32(n),
				State:      StateAvailable,
				PriceCents: priceCents,
			})
		}
	}
	return seats, nil
}

// ParseLabel splits a composite seat label like "A12" into its row
// letter and 1-based seat number.  Lowercase input and surrounding
// whitespace are tolerated.  The second return value is false when the
// label is not a single A-Z letter followed by a positive number.
func ParseLabel(label string) (string, uint32, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if len(s) < 2 {
		return "", 0, false
	}
	row := s[0]
	if row < 'A' || row > 'Z' {
		return "", 0, false
	}
	n, err := strconv.ParseUint(s[1:], 10, 32)
	if err != nil || n == 0 {
		return "", 0, false
	}
	return string(row), uint32(n), true
}

// NormalizeLabels uppercases and trims the given labels and removes
// duplicates while preserving the caller's selection order.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
