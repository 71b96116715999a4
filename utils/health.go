package utils

import (
	"context"
	"sync"
	"time"
)

// HealthCheck probes one external dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Checks    map[string]bool `json:"checks"`
	Healthy   bool            `json:"healthy"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor runs its checks periodically and keeps the last snapshot.
type HealthMonitor struct {
	checks   map[string]HealthCheck
	interval time.Duration

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(interval time.Duration, checks map[string]HealthCheck) *HealthMonitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &HealthMonitor{checks: checks, interval: interval}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CheckNow runs every check once and stores the result.
func (m *HealthMonitor) CheckNow(ctx context.Context) HealthStatus {
	status := HealthStatus{Checks: make(map[string]bool, len(m.checks)), Healthy: true}
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		ok := check(cctx) == nil
		cancel()
		status.Checks[name] = ok
		status.Healthy = status.Healthy && ok
	}
	status.CheckedAt = time.Now()

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.CheckNow(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}
