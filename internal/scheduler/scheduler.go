// Package scheduler runs the periodic jobs: settling due recurring
// payments, bill reminders, budget alerts and notification retention.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	recurringSchedule = "0 1 * * *"
	billSchedule      = "0 9 * * *"
	budgetSchedule    = "0 */6 * * *"

	jobTimeout = 5 * time.Minute

	// Read notifications older than this get pruned.
	notificationRetentionDays = 90
)

// Scheduler owns the cron instance and the jobs registered on it.
type Scheduler struct {
	cron          *cron.Cron
	storage       *storage.SQLiteRepository
	recurring     *services.RecurringService
	notifications *services.NotificationService
}

// New registers the job table on a fresh cron instance.
func New(
	repo *storage.SQLiteRepository,
	recurring *services.RecurringService,
	notifications *services.NotificationService,
) (*Scheduler, error) {
	s := &Scheduler{
		cron:          cron.New(),
		storage:       repo,
		recurring:     recurring,
		notifications: notifications,
	}

	jobs := []struct {
		schedule string
		name     string
		run      func(context.Context) error
	}{
		{recurringSchedule, "recurring_payments", s.runRecurring},
		{billSchedule, "bill_reminders", s.runBillReminders},
		{budgetSchedule, "budget_alerts", s.runBudgetSweep},
	}
	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() { s.runJob(job.name, job.run) }); err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.name, err)
		}
	}

	return s, nil
}

// Start runs one immediate recurring sweep, then hands off to cron.
// A restart after downtime should not wait until 01:00 to catch up.
func (s *Scheduler) Start(ctx context.Context) {
	s.runJob("recurring_payments", s.runRecurring)
	s.cron.Start()
	slog.InfoContext(ctx, "Scheduler started",
		"recurring_schedule", recurringSchedule,
		"bill_schedule", billSchedule,
		"budget_schedule", budgetSchedule)
}

// Stop halts the cron loop and returns once running jobs finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) runJob(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx); err != nil {
		slog.ErrorContext(ctx, "Scheduled job failed",
			"job", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return
	}
	slog.InfoContext(ctx, "Scheduled job completed",
		"job", name,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) runRecurring(ctx context.Context) error {
	processed, err := s.recurring.ProcessDue(ctx, time.Now())
	if err != nil {
		return err
	}
	if processed > 0 {
		slog.InfoContext(ctx, "Recurring payments settled", "count", processed)
	}
	return nil
}

func (s *Scheduler) runBillReminders(ctx context.Context) error {
	created, err := s.notifications.RemindUpcomingBills(ctx, time.Now())
	if err != nil {
		return err
	}
	if created > 0 {
		slog.InfoContext(ctx, "Bill reminders created", "count", created)
	}
	return nil
}

// runBudgetSweep checks budgets for every user and prunes read
// notifications past the retention window.
func (s *Scheduler) runBudgetSweep(ctx context.Context) error {
	created, err := s.notifications.CheckBudgets(ctx, time.Now())
	if err != nil {
		return err
	}
	if created > 0 {
		slog.InfoContext(ctx, "Budget alerts created", "count", created)
	}

	cutoff := time.Now().AddDate(0, 0, -notificationRetentionDays)
	pruned, err := s.storage.PruneNotifications(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune notifications: %w", err)
	}
	if pruned > 0 {
		slog.InfoContext(ctx, "Old notifications pruned", "count", pruned)
	}
	return nil
}
