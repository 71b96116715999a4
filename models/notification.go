package models

import "time"

// ReminderType is carried in the push data payload as "type".
type ReminderType string

const (
	ReminderExpiryWarning ReminderType = "expiry_warning"
	ReminderDailyExpiry   ReminderType = "daily_expiry"
	ReminderWeeklySummary ReminderType = "weekly_summary"
)

// Reminder is one push message decided by the reminder policy.
type Reminder struct {
	Key       string            `json:"key,omitempty"`
	Type      ReminderType      `json:"type"`
	ProductID string            `json:"productId,omitempty"`
	DaysLeft  int               `json:"daysLeft"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data"`
}

// IsDigest reports whether the reminder is the per-user weekly digest.
func (r Reminder) IsDigest() bool {
	return r.Type == ReminderWeeklySummary
}

// SendOutcome records the delivery result for one reminder.
type SendOutcome struct {
	Reminder  Reminder  `json:"reminder"`
	MessageID string    `json:"messageId,omitempty"`
	Error     string    `json:"error,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}
