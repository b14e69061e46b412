package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSeatMap(t *testing.T) {
	seats, err := GenerateSeatMap(2, 3, 100)
	require.NoError(t, err)
	require.Len(t, seats, 6)

	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label())
		assert.Equal(t, StateAvailable, s.State)
		assert.Equal(t, uint32(100), s.PriceCents)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, labels)
}

func TestGenerateSeatMapSingleSeat(t *testing.T) {
	seats, err := GenerateSeatMap(1, 1, 250)
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "A1", seats[0].Label())
}

func TestGenerateSeatMapInvalidLayout(t *testing.T) {
	cases := []struct {
		name       string
		rows, cols int
	}{
		{"zero rows", 0, 5},
		{"zero cols", 5, 0},
		{"negative rows", -1, 5},
		{"too many rows", 27, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateSeatMap(tc.rows, tc.cols, 100)
			assert.ErrorIs(t, err, ErrInvalidLayout)
		})
	}
}

func TestParseLabel(t *testing.T) {
	row, num, ok := ParseLabel("A12")
	require.True(t, ok)
	assert.Equal(t, "A", row)
	assert.Equal(t, uint32(12), num)

	row, num, ok = ParseLabel("  b7 ")
	require.True(t, ok)
	assert.Equal(t, "B", row)
	assert.Equal(t, uint32(7), num)

	for _, bad := range []string{"", "A", "1A", "A0", "AA1", "A-1", "?3"} {
		_, _, ok := ParseLabel(bad)
		assert.False(t, ok, "label %q should not parse", bad)
	}
}

func TestNormalizeLabels(t *testing.T) {
	got := NormalizeLabels([]string{" a1", "A2", "a1", "", "b3 "})
	assert.Equal(t, []string{"A1", "A2", "B3"}, got)
}
