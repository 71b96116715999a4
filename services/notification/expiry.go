package notification

import (
	"strings"
	"time"
)

// dateLayouts are tried in order when reading a product's expiry date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ExpiryCalculator turns expiry date strings into whole-day offsets from
// today. Both sides are normalized to midnight in the same location.
type ExpiryCalculator struct {
	loc *time.Location
}

// NewExpiryCalculator returns a calculator for loc; nil means time.Local.
func NewExpiryCalculator(loc *time.Location) ExpiryCalculator {
	if loc == nil {
		loc = time.Local
	}
	return ExpiryCalculator{loc: loc}
}

// Location is the reference zone for day boundaries.
func (c ExpiryCalculator) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Midnight returns the start of t's calendar day in the reference zone.
func (c ExpiryCalculator) Midnight(t time.Time) time.Time {
	loc := c.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day.
func (c ExpiryCalculator) SameDay(a, b time.Time) bool {
	return c.Midnight(a).Equal(c.Midnight(b))
}

// ParseDate reads an expiry date. Date-only values are calendar dates in
// the reference zone; values carrying an offset are converted into it first.
func (c ExpiryCalculator) ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, c.Location())
		if err == nil {
			return c.Midnight(t), true
		}
	}
	return time.Time{}, false
}

// DaysUntil returns the number of days from today until the expiry date:
// negative once expired, 0 on the expiry day. ok is false when the date is
// missing or malformed.
func (c ExpiryCalculator) DaysUntil(today time.Time, expiry string) (days int, ok bool) {
	exp, ok := c.ParseDate(expiry)
	if !ok {
		return 0, false
	}
	return civilDays(c.Midnight(today), exp), true
}

// civilDays counts calendar days between two midnights. Going through UTC
// keeps DST transitions (23h or 25h days) from skewing the result.
func civilDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
