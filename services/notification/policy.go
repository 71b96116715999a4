package notification

import (
	"fmt"
	"strconv"
	"time"

	"freshtrack/models"
)

const (
	defaultWarningDays    = 10
	defaultDailyWindow    = 5
	defaultDigestWindow   = 7
	defaultDigestInterval = 7
)

// Policy decides which reminders are due. It has no side effects.
type Policy struct {
	Calc ExpiryCalculator

	// WarningDays is the one-off advance warning threshold.
	WarningDays int
	// DailyWindowDays is the last stretch (inclusive) with one reminder per day.
	DailyWindowDays int
	// DigestWindowDays bounds the items counted by the weekly digest.
	DigestWindowDays int
	// DigestIntervalDays is the minimum gap between two digests.
	DigestIntervalDays int

	// SendEmptyDigest sends a digest even when no item qualifies, which
	// still consumes the weekly cadence.
	SendEmptyDigest bool
	// CatchUpWarning fires a missed advance warning on any later day before
	// the daily window opens instead of only when d equals WarningDays.
	CatchUpWarning bool
}

// DefaultPolicy returns the standard thresholds: a 10-day warning, daily
// reminders from 5 days out, and a weekly digest of the next 7 days.
func DefaultPolicy(calc ExpiryCalculator) Policy {
	return Policy{
		Calc:               calc,
		WarningDays:        defaultWarningDays,
		DailyWindowDays:    defaultDailyWindow,
		DigestWindowDays:   defaultDigestWindow,
		DigestIntervalDays: defaultDigestInterval,
		SendEmptyDigest:    true,
	}
}

// ReminderKey identifies one (product, bucket) pair, e.g. "p1_10day".
func ReminderKey(productID string, days int) string {
	return fmt.Sprintf("%s_%dday", productID, days)
}

// ProductReminder returns the reminder due now for product, if any.
func (p Policy) ProductReminder(now time.Time, product models.Product, history HistoryView) (models.Reminder, bool) {
	d, ok := p.Calc.DaysUntil(now, product.ExpiryDate)
	if !ok {
		return models.Reminder{}, false
	}

	switch {
	case d >= 0 && d <= p.DailyWindowDays:
		key := ReminderKey(product.ID, d)
		if history.SentOn(key, now) {
			return models.Reminder{}, false
		}
		return dailyReminder(key, product, d), true

	case d == p.WarningDays, p.CatchUpWarning && d > p.DailyWindowDays && d < p.WarningDays:
		key := ReminderKey(product.ID, p.WarningDays)
		if history.HasSent(key) {
			return models.Reminder{}, false
		}
		return warningReminder(key, product, d), true
	}
	return models.Reminder{}, false
}

// DigestDue reports whether the user's weekly digest should go out now.
func (p Policy) DigestDue(now time.Time, history HistoryView) bool {
	return !history.WasDigestSentWithin(now, p.DigestIntervalDays)
}

// ExpiringSoon counts products with 0 <= d <= DigestWindowDays. Products
// with an unknown expiry date are not counted.
func (p Policy) ExpiringSoon(now time.Time, products []models.Product) int {
	n := 0
	for _, product := range products {
		d, ok := p.Calc.DaysUntil(now, product.ExpiryDate)
		if ok && d >= 0 && d <= p.DigestWindowDays {
			n++
		}
	}
	return n
}

// Digest builds the weekly digest when it is due.
func (p Policy) Digest(now time.Time, products []models.Product, history HistoryView) (models.Reminder, bool) {
	if !p.DigestDue(now, history) {
		return models.Reminder{}, false
	}
	count := p.ExpiringSoon(now, products)
	if count == 0 && !p.SendEmptyDigest {
		return models.Reminder{}, false
	}
	return digestReminder(count, p.DigestWindowDays), true
}

func dailyReminder(key string, product models.Product, d int) models.Reminder {
	r := models.Reminder{
		Key:       key,
		Type:      models.ReminderDailyExpiry,
		ProductID: product.ID,
		DaysLeft:  d,
	}
	switch d {
	case 0:
		r.Title = "Expires Today!"
		r.Body = fmt.Sprintf("%s expires TODAY!", product.Name)
	case 1:
		r.Title = "Expires Tomorrow"
		r.Body = fmt.Sprintf("%s expires tomorrow!", product.Name)
	default:
		r.Title = "Expiring Soon"
		r.Body = fmt.Sprintf("%s expires in %d days", product.Name, d)
	}
	r.Data = productData(r)
	return r
}

func warningReminder(key string, product models.Product, d int) models.Reminder {
	r := models.Reminder{
		Key:       key,
		Type:      models.ReminderExpiryWarning,
		ProductID: product.ID,
		DaysLeft:  d,
		Title:     "Expiry Warning",
		Body:      fmt.Sprintf("%s expires in %d days", product.Name, d),
	}
	r.Data = productData(r)
	return r
}

func digestReminder(count, window int) models.Reminder {
	var body string
	switch count {
	case 0:
		body = fmt.Sprintf("No items are expiring in the next %d days.", window)
	case 1:
		body = fmt.Sprintf("You have 1 item expiring in the next %d days.", window)
	default:
		body = fmt.Sprintf("You have %d items expiring in the next %d days.", count, window)
	}
	return models.Reminder{
		Type:     models.ReminderWeeklySummary,
		DaysLeft: window,
		Title:    "Weekly Reminder",
		Body:     body,
		Data: map[string]string{
			"type":  string(models.ReminderWeeklySummary),
			"count": strconv.Itoa(count),
		},
	}
}

func productData(r models.Reminder) map[string]string {
	return map[string]string{
		"type":      string(r.Type),
		"productId": r.ProductID,
		"daysLeft":  strconv.Itoa(r.DaysLeft),
	}
}
