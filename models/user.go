// models/user.go
package models

import "time"

// User is the notification-relevant part of a user profile document.
type User struct {
	ID                  string               `bson:"id" firestore:"-" json:"id"`
	DeviceToken         string               `bson:"deviceToken,omitempty" firestore:"deviceToken,omitempty" json:"deviceToken,omitempty"`
	LastWeeklyDigestAt  *time.Time           `bson:"lastWeeklyDigestAt,omitempty" firestore:"lastWeeklyDigestAt,omitempty" json:"lastWeeklyDigestAt,omitempty"`
	NotificationHistory map[string]time.Time `bson:"notificationHistory,omitempty" firestore:"notificationHistory,omitempty" json:"notificationHistory,omitempty"`
}

// HasDeviceToken reports whether pushes can be delivered to the user.
func (u User) HasDeviceToken() bool {
	return u.DeviceToken != ""
}

// HistoryUpdate is the delta written back for one user after a pass.
// Sent only holds keys marked during that pass.
type HistoryUpdate struct {
	UserID       string
	Sent         map[string]time.Time
	DigestSentAt *time.Time
}

// Empty reports whether the update carries nothing to write.
func (h HistoryUpdate) Empty() bool {
	return len(h.Sent) == 0 && h.DigestSentAt == nil
}
