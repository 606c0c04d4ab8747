// Package scheduler runs periodic background jobs with robfig/cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/microfund/internal/metrics"
	"github.com/Dan9191/microfund/internal/models"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	reminderJob = "repayment-reminders"
	cleanupJob  = "rate-limiter-cleanup"

	cleanupSchedule = "@every 10m"
	limiterMaxIdle  = 30 * time.Minute
	jobTimeout      = time.Minute
)

// ReminderStore lists approved loans that are due a reminder
type ReminderStore interface {
	ListRepaymentReminders(ctx context.Context, fundedBefore time.Time) ([]models.RepaymentReminder, error)
}

// ReminderNotifier delivers a repayment reminder to a borrower
type ReminderNotifier interface {
	SendRepaymentReminder(to, username string, loanID uuid.UUID, amount decimal.Decimal, approvedAt time.Time) error
}

// Cleaner drops idle per-client state
type Cleaner interface {
	Cleanup(maxIdle time.Duration) int
}

// Options configures the scheduler
type Options struct {
	ReminderSchedule string
	ReminderAfter    time.Duration
}

// Scheduler owns the cron runner and its jobs
type Scheduler struct {
	cron     *cron.Cron
	opts     Options
	store    ReminderStore
	notifier ReminderNotifier
	limiter  Cleaner
	log      *logrus.Logger
	now      func() time.Time
}

// New creates a scheduler. limiter may be nil.
func New(opts Options, store ReminderStore, notifier ReminderNotifier, limiter Cleaner, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		opts:     opts,
		store:    store,
		notifier: notifier,
		limiter:  limiter,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register adds the jobs to the cron runner
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.opts.ReminderSchedule, s.runReminders); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.opts.ReminderSchedule, err)
	}
	if s.limiter != nil {
		if _, err := s.cron.AddFunc(cleanupSchedule, s.runCleanup); err != nil {
			return fmt.Errorf("failed to schedule limiter cleanup: %w", err)
		}
	}
	return nil
}

// Start runs the registered jobs in the background
func (s *Scheduler) Start() {
	s.log.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out")
	}
}

// SendRepaymentReminders emails borrowers whose loans were funded more than
// ReminderAfter ago and are still outstanding. Individual delivery failures
// are logged and counted; the run continues.
func (s *Scheduler) SendRepaymentReminders(ctx context.Context) (sent int, err error) {
	cutoff := s.now().Add(-s.opts.ReminderAfter)
	reminders, err := s.store.ListRepaymentReminders(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, rem := range reminders {
		if err := s.notifier.SendRepaymentReminder(rem.Email, rem.Username, rem.LoanID, rem.Amount, rem.ApprovedAt); err != nil {
			s.log.WithFields(logrus.Fields{"loan_id": rem.LoanID}).WithError(err).Warn("Failed to send repayment reminder")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	sent, err := s.SendRepaymentReminders(ctx)
	metrics.RecordJobRun(reminderJob, time.Since(start), err == nil)
	if err != nil {
		s.log.WithError(err).Error("Repayment reminder job failed")
		return
	}
	s.log.WithField("sent", sent).Info("Repayment reminders sent")
}

func (s *Scheduler) runCleanup() {
	start := time.Now()
	removed := s.limiter.Cleanup(limiterMaxIdle)
	metrics.RecordJobRun(cleanupJob, time.Since(start), true)
	s.log.WithField("removed", removed).Debug("Rate limiter cleanup")
}
