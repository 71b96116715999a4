package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the reminder engine's Prometheus collectors.
type Metrics struct {
	PassesTotal     *prometheus.CounterVec
	PassDuration    prometheus.Histogram
	RemindersSent   *prometheus.CounterVec
	RemindersFailed *prometheus.CounterVec
	UsersSkipped    *prometheus.CounterVec
	HistoryCommits  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const namespace, subsystem = "freshtrack", "notification"

	return &Metrics{
		PassesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "passes_total",
			Help:      "Total number of scheduler passes",
		}, []string{"trigger", "status"}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pass_duration_seconds",
			Help:      "Time spent running one scheduler pass",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		RemindersSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_sent_total",
			Help:      "Total number of reminders delivered",
		}, []string{"type"}),
		RemindersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminders_failed_total",
			Help:      "Total number of reminders the delivery collaborator rejected",
		}, []string{"type"}),
		UsersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "users_skipped_total",
			Help:      "Users skipped during a pass",
		}, []string{"reason"}),
		HistoryCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_commits_total",
			Help:      "Notification history writes",
		}, []string{"status"}),
	}
}

func (m *Metrics) reminderSent(t string) {
	if m != nil {
		m.RemindersSent.WithLabelValues(t).Inc()
	}
}

func (m *Metrics) reminderFailed(t string) {
	if m != nil {
		m.RemindersFailed.WithLabelValues(t).Inc()
	}
}

// UserSkipped counts a user left out of a pass.
func (m *Metrics) UserSkipped(reason string) {
	if m != nil {
		m.UsersSkipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) historyCommit(status string) {
	if m != nil {
		m.HistoryCommits.WithLabelValues(status).Inc()
	}
}

// ObservePass records a finished pass.
func (m *Metrics) ObservePass(trigger, status string, seconds float64) {
	if m == nil {
		return
	}
	m.PassesTotal.WithLabelValues(trigger, status).Inc()
	m.PassDuration.Observe(seconds)
}
