package notification

import (
	"context"
	"time"

	"freshtrack/models"

	"go.uber.org/zap"
)

// UserResult summarizes one user's share of a pass.
type UserResult struct {
	UserID    string               `json:"userId"`
	NoToken   bool                 `json:"noToken,omitempty"`
	Sent      int                  `json:"sent"`
	Failed    int                  `json:"failed"`
	Committed bool                 `json:"committed"`
	Outcomes  []models.SendOutcome `json:"outcomes,omitempty"`
}

// Runner evaluates and delivers the reminders of a single user.
type Runner struct {
	delivery Delivery
	history  *HistoryStore
	policy   Policy
	clock    Clock
	logger   *zap.Logger
	metrics  *Metrics
}

func NewRunner(delivery Delivery, history *HistoryStore, policy Policy, clock Clock, logger *zap.Logger, metrics *Metrics) *Runner {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		delivery: delivery,
		history:  history,
		policy:   policy,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Configured reports whether both delivery and history persistence exist.
func (r *Runner) Configured() bool {
	return r != nil && r.delivery != nil && r.history != nil && r.history.writer != nil
}

// Plan lists the reminders due now for a loaded user: the digest first,
// then product reminders in product order.
func (r *Runner) Plan(now time.Time, userID string, products []models.Product) []models.Reminder {
	view := r.history.View(userID)

	var due []models.Reminder
	if digest, ok := r.policy.Digest(now, products, view); ok {
		due = append(due, digest)
	}
	for _, p := range products {
		if reminder, ok := r.policy.ProductReminder(now, p, view); ok {
			due = append(due, reminder)
		}
	}
	return due
}

// Run sends the user's due reminders and writes the updated history once.
// A failed send leaves its key unmarked so the next pass retries it.
func (r *Runner) Run(ctx context.Context, user models.User, products []models.Product) (UserResult, error) {
	result := UserResult{UserID: user.ID}
	if !r.Configured() {
		return result, ErrNotConfigured
	}
	if !user.HasDeviceToken() {
		result.NoToken = true
		r.logger.Debug("user has no device token, skipping", zap.String("userId", user.ID))
		return result, nil
	}

	r.history.Load(user)
	defer r.history.Forget(user.ID)

	now := r.clock.Now()
	for _, reminder := range r.Plan(now, user.ID, products) {
		outcome := models.SendOutcome{Reminder: reminder, SentAt: now}

		id, err := r.delivery.Send(ctx, user.DeviceToken, reminder.Title, reminder.Body, reminder.Data)
		if err != nil {
			result.Failed++
			outcome.Error = err.Error()
			result.Outcomes = append(result.Outcomes, outcome)
			r.metrics.reminderFailed(string(reminder.Type))
			r.logger.Warn("reminder delivery failed",
				zap.String("userId", user.ID),
				zap.String("type", string(reminder.Type)),
				zap.String("reminderKey", reminder.Key),
				zap.Error(err),
			)
			continue
		}

		outcome.MessageID = id
		result.Sent++
		result.Outcomes = append(result.Outcomes, outcome)
		r.metrics.reminderSent(string(reminder.Type))

		if reminder.IsDigest() {
			r.history.MarkDigestSent(user.ID, now)
		} else {
			r.history.MarkSent(user.ID, reminder.Key, now)
		}
	}

	wrote, err := r.history.Commit(ctx, user.ID)
	if err != nil {
		r.metrics.historyCommit("error")
		r.logger.Error("failed to commit notification history", zap.String("userId", user.ID), zap.Error(err))
		return result, err
	}
	if wrote {
		r.metrics.historyCommit("success")
	}
	result.Committed = wrote
	return result, nil
}
