package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshtrack/models"
)

// HistoryWriter persists the per-key delta of one user's history.
type HistoryWriter interface {
	CommitHistory(ctx context.Context, update models.HistoryUpdate) error
}

// HistoryView is the read side of one user's history, as seen by the policy.
type HistoryView interface {
	HasSent(key string) bool
	SentOn(key string, day time.Time) bool
	WasDigestSentWithin(now time.Time, days int) bool
}

type userHistory struct {
	sent          map[string]time.Time
	lastDigest    *time.Time
	pending       map[string]time.Time
	pendingDigest *time.Time
}

// HistoryStore keeps the "already sent" state of users during a pass.
// A user's record is loaded once, mutated in memory and committed once.
type HistoryStore struct {
	mu      sync.Mutex
	records map[string]*userHistory
	writer  HistoryWriter
	calc    ExpiryCalculator
}

func NewHistoryStore(writer HistoryWriter, calc ExpiryCalculator) *HistoryStore {
	return &HistoryStore{
		records: make(map[string]*userHistory),
		writer:  writer,
		calc:    calc,
	}
}

// Load copies the persisted history of user into the store, replacing any
// earlier copy.
func (s *HistoryStore) Load(user models.User) {
	h := &userHistory{
		sent:    make(map[string]time.Time, len(user.NotificationHistory)),
		pending: make(map[string]time.Time),
	}
	for k, v := range user.NotificationHistory {
		h.sent[k] = v
	}
	if user.LastWeeklyDigestAt != nil {
		t := *user.LastWeeklyDigestAt
		h.lastDigest = &t
	}

	s.mu.Lock()
	s.records[user.ID] = h
	s.mu.Unlock()
}

// Forget drops the in-memory copy of a user.
func (s *HistoryStore) Forget(userID string) {
	s.mu.Lock()
	delete(s.records, userID)
	s.mu.Unlock()
}

func (s *HistoryStore) record(userID string) *userHistory {
	h, ok := s.records[userID]
	if !ok {
		h = &userHistory{sent: make(map[string]time.Time), pending: make(map[string]time.Time)}
		s.records[userID] = h
	}
	return h
}

// HasSent reports whether key was ever marked for the user.
func (s *HistoryStore) HasSent(userID, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.record(userID).sent[key]
	return ok
}

// SentOn reports whether key was last marked on day's calendar day.
func (s *HistoryStore) SentOn(userID, key string, day time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.record(userID).sent[key]
	return ok && s.calc.SameDay(at, day)
}

// MarkSent records key as sent at ts.
func (s *HistoryStore) MarkSent(userID, key string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.record(userID)
	h.sent[key] = ts
	h.pending[key] = ts
}

// LastDigestAt returns when the weekly digest was last sent.
func (s *HistoryStore) LastDigestAt(userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.record(userID)
	if h.lastDigest == nil {
		return time.Time{}, false
	}
	return *h.lastDigest, true
}

// WasDigestSentWithin reports whether a digest went out less than days
// whole days before now.
func (s *HistoryStore) WasDigestSentWithin(userID string, now time.Time, days int) bool {
	last, ok := s.LastDigestAt(userID)
	if !ok {
		return false
	}
	return now.Sub(last) < time.Duration(days)*24*time.Hour
}

// MarkDigestSent records a weekly digest sent at ts.
func (s *HistoryStore) MarkDigestSent(userID string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.record(userID)
	h.lastDigest = &ts
	h.pendingDigest = &ts
}

// Pending returns what has been marked since the user was loaded.
func (s *HistoryStore) Pending(userID string) models.HistoryUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.record(userID)
	update := models.HistoryUpdate{UserID: userID}
	if len(h.pending) > 0 {
		update.Sent = make(map[string]time.Time, len(h.pending))
		for k, v := range h.pending {
			update.Sent[k] = v
		}
	}
	if h.pendingDigest != nil {
		t := *h.pendingDigest
		update.DigestSentAt = &t
	}
	return update
}

// Commit writes the pending delta of a user in a single call. It returns
// false without writing when nothing changed.
func (s *HistoryStore) Commit(ctx context.Context, userID string) (bool, error) {
	update := s.Pending(userID)
	if update.Empty() {
		return false, nil
	}
	if s.writer == nil {
		return false, ErrNotConfigured
	}
	if err := s.writer.CommitHistory(ctx, update); err != nil {
		return false, fmt.Errorf("commit history for user %s: %w", userID, err)
	}

	s.mu.Lock()
	h := s.record(userID)
	h.pending = make(map[string]time.Time)
	h.pendingDigest = nil
	s.mu.Unlock()
	return true, nil
}

// View binds the store to one user.
func (s *HistoryStore) View(userID string) HistoryView {
	return userView{store: s, userID: userID}
}

type userView struct {
	store  *HistoryStore
	userID string
}

func (v userView) HasSent(key string) bool { return v.store.HasSent(v.userID, key) }

func (v userView) SentOn(key string, day time.Time) bool {
	return v.store.SentOn(v.userID, key, day)
}

func (v userView) WasDigestSentWithin(now time.Time, days int) bool {
	return v.store.WasDigestSentWithin(v.userID, now, days)
}
