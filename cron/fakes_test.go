package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freshtrack/models"
)

// memStore is an in-memory user/product store that applies history
// commits the way the document stores do.
type memStore struct {
	mu          sync.Mutex
	users       []models.User
	products    map[string][]models.Product
	listErr     error
	productErrs map[string]error
	commits     int
}

func newMemStore() *memStore {
	return &memStore{products: map[string][]models.Product{}, productErrs: map[string]error{}}
}

func (m *memStore) addUser(u models.User, products ...models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
	m.products[u.ID] = products
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.User, len(m.users))
	for i, u := range m.users {
		hist := make(map[string]time.Time, len(u.NotificationHistory))
		for k, v := range u.NotificationHistory {
			hist[k] = v
		}
		u.NotificationHistory = hist
		out[i] = u
	}
	return out, nil
}

func (m *memStore) ListByUser(_ context.Context, userID string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.productErrs[userID]; err != nil {
		return nil, err
	}
	return append([]models.Product(nil), m.products[userID]...), nil
}

func (m *memStore) CommitHistory(_ context.Context, update models.HistoryUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID != update.UserID {
			continue
		}
		if m.users[i].NotificationHistory == nil {
			m.users[i].NotificationHistory = map[string]time.Time{}
		}
		for k, v := range update.Sent {
			m.users[i].NotificationHistory[k] = v
		}
		if update.DigestSentAt != nil {
			t := *update.DigestSentAt
			m.users[i].LastWeeklyDigestAt = &t
		}
		m.commits++
		return nil
	}
	return fmt.Errorf("user %s not found", update.UserID)
}

func (m *memStore) commitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

type pushed struct {
	Token string
	Title string
	Data  map[string]string
}

type fakeDelivery struct {
	mu   sync.Mutex
	sent []pushed

	// when gate is set, Send signals entered and waits for gate to close.
	gate    chan struct{}
	entered chan struct{}
}

func newGatedDelivery() *fakeDelivery {
	return &fakeDelivery{gate: make(chan struct{}), entered: make(chan struct{}, 16)}
}

func (d *fakeDelivery) Send(_ context.Context, token, title, _ string, data map[string]string) (string, error) {
	if d.gate != nil {
		d.entered <- struct{}{}
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, pushed{Token: token, Title: title, Data: data})
	return fmt.Sprintf("msg-%d", len(d.sent)), nil
}

func (d *fakeDelivery) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func (d *fakeDelivery) messages() []pushed {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]pushed(nil), d.sent...)
}

type lockFunc func(ctx context.Context) (func(), error)

func (f lockFunc) Acquire(ctx context.Context) (func(), error) { return f(ctx) }

var errStoreDown = errors.New("store unavailable")
