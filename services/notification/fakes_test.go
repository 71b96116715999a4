package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freshtrack/models"
)

type fakeWriter struct {
	mu      sync.Mutex
	updates []models.HistoryUpdate
	err     error
}

func (w *fakeWriter) CommitHistory(_ context.Context, update models.HistoryUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.updates = append(w.updates, update)
	return nil
}

func (w *fakeWriter) calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.updates)
}

// apply folds committed updates back into a user record, the way the
// document store would.
func (w *fakeWriter) apply(u models.User) models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	if u.NotificationHistory == nil {
		u.NotificationHistory = map[string]time.Time{}
	}
	for _, up := range w.updates {
		if up.UserID != u.ID {
			continue
		}
		for k, v := range up.Sent {
			u.NotificationHistory[k] = v
		}
		if up.DigestSentAt != nil {
			t := *up.DigestSentAt
			u.LastWeeklyDigestAt = &t
		}
	}
	return u
}

type sentMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type fakeDelivery struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn func(title string, data map[string]string) bool
}

var errDeliveryDown = errors.New("delivery unavailable")

func (d *fakeDelivery) Send(_ context.Context, token, title, body string, data map[string]string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOn != nil && d.failOn(title, data) {
		return "", errDeliveryDown
	}
	d.sent = append(d.sent, sentMessage{Token: token, Title: title, Body: body, Data: data})
	return fmt.Sprintf("msg-%d", len(d.sent)), nil
}

func (d *fakeDelivery) messages() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]sentMessage, len(d.sent))
	copy(out, d.sent)
	return out
}

func (d *fakeDelivery) reset() {
	d.mu.Lock()
	d.sent = nil
	d.mu.Unlock()
}
