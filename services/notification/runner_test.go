package notification

import (
	"context"
	"testing"
	"time"

	"freshtrack/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type runnerFixture struct {
	clock    *FixedClock
	writer   *fakeWriter
	delivery *fakeDelivery
	metrics  *Metrics
	runner   *Runner
}

func newRunnerFixture(now time.Time) *runnerFixture {
	calc := NewExpiryCalculator(time.UTC)
	f := &runnerFixture{
		clock:    NewFixedClock(now),
		writer:   &fakeWriter{},
		delivery: &fakeDelivery{},
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	f.runner = NewRunner(f.delivery, NewHistoryStore(f.writer, calc), DefaultPolicy(calc), f.clock, zap.NewNop(), f.metrics)
	return f
}

// run executes one pass for user and returns the user as the store would
// hold it afterwards.
func (f *runnerFixture) run(t *testing.T, user models.User, products []models.Product) (models.User, UserResult) {
	t.Helper()
	f.delivery.reset()
	res, err := f.runner.Run(context.Background(), user, products)
	require.NoError(t, err)
	return f.writer.apply(user), res
}

func digestDone(at time.Time) *time.Time {
	t := at.Add(-24 * time.Hour)
	return &t
}

func withExpiry(id string, now time.Time, days int) models.Product {
	return models.Product{ID: id, Name: "Yogurt", ExpiryDate: now.AddDate(0, 0, days).Format("2006-01-02")}
}

func onlyProductSends(msgs []sentMessage) []sentMessage {
	var out []sentMessage
	for _, m := range msgs {
		if m.Data["type"] != string(models.ReminderWeeklySummary) {
			out = append(out, m)
		}
	}
	return out
}

func TestRunnerTenDayScenario(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	user := models.User{ID: "u1", DeviceToken: "tok", LastWeeklyDigestAt: digestDone(now)}
	products := []models.Product{withExpiry("p1", now, 10)}

	user, _ = f.run(t, user, products)
	sends := f.delivery.messages()
	require.Len(t, sends, 1)
	assert.Equal(t, map[string]string{"type": "expiry_warning", "productId": "p1", "daysLeft": "10"}, sends[0].Data)
	assert.Contains(t, user.NotificationHistory, "p1_10day")

	f.clock.Advance(2 * time.Hour)
	user, _ = f.run(t, user, products)
	assert.Empty(t, f.delivery.messages(), "same day")

	f.clock.Advance(24 * time.Hour)
	_, _ = f.run(t, user, products)
	assert.Empty(t, f.delivery.messages(), "d=9 is outside both windows")
}

func TestRunnerExpiresTodayScenario(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	user := models.User{ID: "u1", DeviceToken: "tok", LastWeeklyDigestAt: digestDone(now)}
	products := []models.Product{withExpiry("p2", now, 0)}

	user, _ = f.run(t, user, products)
	sends := f.delivery.messages()
	require.Len(t, sends, 1)
	assert.Equal(t, "Expires Today!", sends[0].Title)
	assert.Equal(t, map[string]string{"type": "daily_expiry", "productId": "p2", "daysLeft": "0"}, sends[0].Data)

	f.clock.Advance(6 * time.Hour)
	user, _ = f.run(t, user, products)
	assert.Empty(t, f.delivery.messages())

	f.clock.Advance(24 * time.Hour)
	_, _ = f.run(t, user, products)
	assert.Empty(t, f.delivery.messages(), "expired products are not reminded")
}

func TestRunnerWeeklyDigestScenario(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	eightDaysAgo := now.AddDate(0, 0, -8)
	user := models.User{ID: "u1", DeviceToken: "tok", LastWeeklyDigestAt: &eightDaysAgo}
	products := []models.Product{withExpiry("a", now, 6), withExpiry("b", now, 7), withExpiry("c", now, 20)}

	user, res := f.run(t, user, products)
	sends := f.delivery.messages()
	require.Len(t, sends, 1)
	assert.Equal(t, "Weekly Reminder", sends[0].Title)
	assert.Equal(t, "2", sends[0].Data["count"])
	require.NotNil(t, user.LastWeeklyDigestAt)
	assert.Equal(t, now, *user.LastWeeklyDigestAt)
	assert.True(t, res.Committed)
}

func TestRunnerDigestFirstThenProductOrder(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	user := models.User{ID: "u1", DeviceToken: "tok"}
	products := []models.Product{withExpiry("p1", now, 1), withExpiry("p2", now, 10), withExpiry("p3", now, 0)}

	_, res := f.run(t, user, products)
	sends := f.delivery.messages()
	require.Len(t, sends, 4)
	assert.Equal(t, "weekly_summary", sends[0].Data["type"])
	assert.Equal(t, "p1", sends[1].Data["productId"])
	assert.Equal(t, "p2", sends[2].Data["productId"])
	assert.Equal(t, "p3", sends[3].Data["productId"])
	assert.Equal(t, 4, res.Sent)
	assert.Equal(t, 1, f.writer.calls(), "one history write per user per pass")
}

func TestRunnerWithoutDeviceToken(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	user := models.User{ID: "u1"}

	res, err := f.runner.Run(context.Background(), user, []models.Product{withExpiry("p1", now, 0)})
	require.NoError(t, err)
	assert.True(t, res.NoToken)
	assert.Empty(t, f.delivery.messages())
	assert.Zero(t, f.writer.calls())
}

func TestRunnerFailedSendIsRetriedNextPass(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	f.delivery.failOn = func(_ string, data map[string]string) bool { return data["productId"] == "p1" }
	user := models.User{ID: "u1", DeviceToken: "tok", LastWeeklyDigestAt: digestDone(now)}
	products := []models.Product{withExpiry("p1", now, 2), withExpiry("p2", now, 3)}

	user, res := f.run(t, user, products)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Sent)
	assert.NotContains(t, user.NotificationHistory, "p1_2day")
	assert.Contains(t, user.NotificationHistory, "p2_3day")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RemindersFailed.WithLabelValues("daily_expiry")))

	f.delivery.failOn = nil
	f.clock.Advance(time.Hour)
	user, res = f.run(t, user, products)
	sends := f.delivery.messages()
	require.Len(t, sends, 1)
	assert.Equal(t, "p1", sends[0].Data["productId"])
	assert.Contains(t, user.NotificationHistory, "p1_2day")
	assert.Equal(t, 1, res.Sent)
}

func TestRunnerFailedDigestKeepsCadence(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	f.delivery.failOn = func(title string, _ map[string]string) bool { return title == "Weekly Reminder" }
	user := models.User{ID: "u1", DeviceToken: "tok"}

	user, res := f.run(t, user, nil)
	assert.Equal(t, 1, res.Failed)
	assert.Nil(t, user.LastWeeklyDigestAt)
	assert.False(t, res.Committed)
	assert.Zero(t, f.writer.calls())
}

func TestRunnerMalformedProduct(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	user := models.User{ID: "u1", DeviceToken: "tok"}
	products := []models.Product{{ID: "bad", Name: "Mystery", ExpiryDate: "31st of never"}, withExpiry("ok", now, 1)}

	_, res := f.run(t, user, products)
	sends := f.delivery.messages()
	require.Len(t, sends, 2)
	assert.Equal(t, "1", sends[0].Data["count"], "malformed product is not counted")
	assert.Len(t, onlyProductSends(sends), 1)
	assert.Equal(t, 0, res.Failed)
}

func TestRunnerCommitFailure(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	f := newRunnerFixture(now)
	f.writer.err = assert.AnError

	_, err := f.runner.Run(context.Background(), models.User{ID: "u1", DeviceToken: "tok"}, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunnerNotConfigured(t *testing.T) {
	calc := NewExpiryCalculator(time.UTC)
	r := NewRunner(nil, NewHistoryStore(&fakeWriter{}, calc), DefaultPolicy(calc), nil, nil, nil)

	_, err := r.Run(context.Background(), models.User{ID: "u1", DeviceToken: "tok"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, r.Configured())
}
