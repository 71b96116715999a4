package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freshtrack/models"
	"freshtrack/services/notification"

	"github.com/google/uuid"
	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	TriggerStartup = "startup"
	TriggerTimer   = "timer"
	TriggerManual  = "manual"
)

const notScheduled = "Not scheduled"

// UserDirectory lists every user record for a pass.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// ProductDirectory lists the products owned by one user.
type ProductDirectory interface {
	ListByUser(ctx context.Context, userID string) ([]models.Product, error)
}

// PassResult is the summary of one full pass over all users.
type PassResult struct {
	PassID            string    `json:"passId"`
	Trigger           string    `json:"trigger"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	Users             int       `json:"users"`
	UsersWithoutToken int       `json:"usersWithoutToken"`
	UsersSkipped      int       `json:"usersSkipped"`
	CommitFailures    int       `json:"commitFailures"`
	Sent              int       `json:"sent"`
	Failed            int       `json:"failed"`
}

// Status is what the status endpoint reports.
type Status struct {
	IsRunning          bool   `json:"isRunning"`
	CadenceDescription string `json:"cadenceDescription"`
}

type Options struct {
	Users    UserDirectory
	Products ProductDirectory
	Runner   *notification.Runner
	Lock     PassLock
	Clock    notification.Clock
	Logger   *zap.Logger
	Metrics  *notification.Metrics
}

// Scheduler runs notification passes on a fixed cadence and on demand.
// Passes never overlap inside one process.
type Scheduler struct {
	users    UserDirectory
	products ProductDirectory
	runner   *notification.Runner
	lock     PassLock
	clock    notification.Clock
	logger   *zap.Logger
	metrics  *notification.Metrics

	mu       sync.Mutex
	cron     *robfig.Cron
	interval int

	passMu sync.Mutex

	// active counts passes started but not finished, whatever triggered them.
	activeMu sync.Mutex
	idle     *sync.Cond
	active   int
}

func New(opts Options) *Scheduler {
	s := &Scheduler{
		users:    opts.Users,
		products: opts.Products,
		runner:   opts.Runner,
		lock:     opts.Lock,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if s.lock == nil {
		s.lock = NoopPassLock{}
	}
	if s.clock == nil {
		s.clock = notification.SystemClock{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.idle = sync.NewCond(&s.activeMu)
	return s
}

func (s *Scheduler) beginPass() {
	s.activeMu.Lock()
	s.active++
	s.activeMu.Unlock()
}

func (s *Scheduler) endPass() {
	s.activeMu.Lock()
	s.active--
	if s.active == 0 {
		s.idle.Broadcast()
	}
	s.activeMu.Unlock()
}

func (s *Scheduler) waitIdle() {
	s.activeMu.Lock()
	for s.active > 0 {
		s.idle.Wait()
	}
	s.activeMu.Unlock()
}

// Configured reports whether a pass could do any work.
func (s *Scheduler) Configured() bool {
	return s.users != nil && s.products != nil && s.runner.Configured()
}

// Start arms the timer and fires one pass right away. Calling it while
// already running does nothing.
func (s *Scheduler) Start(intervalHours int) error {
	if intervalHours <= 0 {
		return fmt.Errorf("invalid notification interval: %d hours", intervalHours)
	}
	if !s.Configured() {
		s.logger.Warn("notification scheduler not started: store or delivery missing")
		return notification.ErrNotConfigured
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.logger.Debug("notification scheduler already running")
		return nil
	}

	cl := newCronLogger(s.logger)
	c := robfig.New(
		robfig.WithLogger(cl),
		robfig.WithChain(robfig.Recover(cl), robfig.SkipIfStillRunning(cl)),
	)
	spec := fmt.Sprintf("@every %dh", intervalHours)
	if _, err := c.AddFunc(spec, func() { s.runInBackground(TriggerTimer) }); err != nil {
		return fmt.Errorf("schedule notification pass: %w", err)
	}
	c.Start()

	s.cron = c
	s.interval = intervalHours
	s.logger.Info("notification scheduler started", zap.String("cadence", describeCadence(intervalHours)))

	s.beginPass()
	go func() {
		defer s.endPass()
		s.runInBackground(TriggerStartup)
	}()
	return nil
}

// Stop disarms the timer. A pass already in flight is left to finish;
// the returned context is done once no pass of any trigger is running.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	var timerJobs context.Context
	if s.cron != nil {
		timerJobs = s.cron.Stop()
		s.cron = nil
		s.interval = 0
		s.logger.Info("notification scheduler stopped")
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		if timerJobs != nil {
			<-timerJobs.Done()
		}
		s.waitIdle()
	}()
	return ctx
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return Status{IsRunning: false, CadenceDescription: notScheduled}
	}
	return Status{IsRunning: true, CadenceDescription: describeCadence(s.interval)}
}

// TriggerNow runs a pass immediately, waiting for any pass in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (PassResult, error) {
	return s.RunPass(ctx, TriggerManual)
}

func (s *Scheduler) runInBackground(trigger string) {
	if _, err := s.RunPass(context.Background(), trigger); err != nil {
		s.logger.Error("scheduled notification pass failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

// RunPass evaluates every user once. A user whose products cannot be read
// is skipped; failing to list users aborts the pass.
func (s *Scheduler) RunPass(ctx context.Context, trigger string) (PassResult, error) {
	result := PassResult{PassID: uuid.NewString(), Trigger: trigger}
	logger := s.logger.With(zap.String("passId", result.PassID), zap.String("trigger", trigger))

	if !s.Configured() {
		s.metrics.ObservePass(trigger, "not_configured", 0)
		logger.Warn("notification pass skipped: store or delivery missing")
		return result, notification.ErrNotConfigured
	}

	s.beginPass()
	defer s.endPass()

	// A pass runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	s.passMu.Lock()
	defer s.passMu.Unlock()

	release, err := s.lock.Acquire(ctx)
	switch {
	case errors.Is(err, ErrPassInProgress):
		s.metrics.ObservePass(trigger, "locked", 0)
		logger.Info("notification pass skipped: lock held elsewhere")
		return result, err
	case err != nil:
		logger.Warn("pass lock unavailable, continuing without it", zap.Error(err))
	default:
		defer release()
	}

	started := time.Now()
	result.StartedAt = s.clock.Now()
	logger.Info("notification pass started")

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.metrics.ObservePass(trigger, "error", time.Since(started).Seconds())
		logger.Error("failed to list users", zap.Error(err))
		return result, fmt.Errorf("list users: %w", err)
	}
	result.Users = len(users)

	for _, user := range users {
		if !user.HasDeviceToken() {
			result.UsersWithoutToken++
			s.metrics.UserSkipped("no_token")
			continue
		}

		products, err := s.products.ListByUser(ctx, user.ID)
		if err != nil {
			result.UsersSkipped++
			s.metrics.UserSkipped("product_read_error")
			logger.Warn("failed to list products, skipping user", zap.String("userId", user.ID), zap.Error(err))
			continue
		}

		ur, err := s.runner.Run(ctx, user, products)
		result.Sent += ur.Sent
		result.Failed += ur.Failed
		if err != nil {
			result.CommitFailures++
		}
	}

	result.FinishedAt = s.clock.Now()
	s.metrics.ObservePass(trigger, "success", time.Since(started).Seconds())
	logger.Info("notification pass finished",
		zap.Int("users", result.Users),
		zap.Int("usersWithoutToken", result.UsersWithoutToken),
		zap.Int("usersSkipped", result.UsersSkipped),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("commitFailures", result.CommitFailures),
		zap.Duration("took", time.Since(started)),
	)
	return result, nil
}

func describeCadence(hours int) string {
	switch {
	case hours <= 0:
		return notScheduled
	case hours == 1:
		return "Every hour"
	default:
		return fmt.Sprintf("Every %d hours", hours)
	}
}
