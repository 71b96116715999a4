package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestDaysUntil(t *testing.T) {
	calc := NewExpiryCalculator(time.UTC)
	today := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry string
		want   int
	}{
		{"today", "2024-03-10", 0},
		{"tomorrow", "2024-03-11", 1},
		{"ten days", "2024-03-20", 10},
		{"expired", "2024-03-09", -1},
		{"rfc3339 late in day", "2024-03-12T23:59:59Z", 2},
		{"rfc3339 nano", "2024-03-15T08:00:00.123Z", 5},
		{"slash format", "03/17/2024", 7},
		{"padded", "  2024-03-13 ", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calc.DaysUntil(today, tt.expiry)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysUntilUnknown(t *testing.T) {
	calc := NewExpiryCalculator(time.UTC)
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"", "   ", "not a date", "2024-13-40", "tomorrow"} {
		_, ok := calc.DaysUntil(today, raw)
		assert.False(t, ok, raw)
	}
}

func TestDaysUntilAcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	calc := NewExpiryCalculator(ny)

	// 2024-11-03 has 25 hours in New York.
	today := time.Date(2024, 11, 2, 20, 0, 0, 0, ny)
	got, ok := calc.DaysUntil(today, "2024-11-04")
	require.True(t, ok)
	assert.Equal(t, 2, got)

	// 2024-03-10 has 23 hours.
	today = time.Date(2024, 3, 9, 1, 0, 0, 0, ny)
	got, ok = calc.DaysUntil(today, "2024-03-11")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestDaysUntilUsesReferenceZone(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	calc := NewExpiryCalculator(tokyo)

	// 20:00 UTC on the 9th is already the 10th in Tokyo.
	now := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	got, ok := calc.DaysUntil(now, "2024-03-10")
	require.True(t, ok)
	assert.Equal(t, 0, got)
}

func TestSameDay(t *testing.T) {
	calc := NewExpiryCalculator(time.UTC)
	a := time.Date(2024, 3, 10, 0, 0, 1, 0, time.UTC)
	b := time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)
	c := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.True(t, calc.SameDay(a, b))
	assert.False(t, calc.SameDay(b, c))
}
