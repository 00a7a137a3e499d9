package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	// UnusualSpendingRatio flags an expense once it exceeds the
	// category's historical average by this factor.
	UnusualSpendingRatio = 1.25

	// MinSpendingSamples is how much history a category needs before
	// unusual-spending detection kicks in.
	MinSpendingSamples = 3

	// UpcomingBillWindowDays is how far ahead bill reminders look.
	UpcomingBillWindowDays = 3
)

// NotificationService generates upcoming-bill, unusual-spending and
// budget alerts, deduplicated per day.
type NotificationService struct {
	storage *storage.SQLiteRepository
}

func NewNotificationService(storage *storage.SQLiteRepository) *NotificationService {
	return &NotificationService{storage: storage}
}

// CheckUnusualSpending compares one transaction against the user's
// historical average for the category and records an alert when it is
// clearly above it.
func (s *NotificationService) CheckUnusualSpending(ctx context.Context, userID, transactionID, categoryID int64) error {
	t, err := s.storage.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if t.CategoryType != core.Expense {
		return nil
	}

	avg, _, count, err := s.storage.CategorySpendingStats(ctx, userID, categoryID, transactionID)
	if err != nil {
		return err
	}
	if count < MinSpendingSamples || avg <= 0 {
		return nil
	}

	amount := math.Abs(t.Amount)
	if amount <= avg*UnusualSpendingRatio {
		return nil
	}

	created, err := s.createOnce(ctx, core.Notification{
		UserID:    userID,
		Type:      core.NotifyUnusualSpending,
		Severity:  core.SeverityWarning,
		Title:     "Unusual spending detected",
		Message: fmt.Sprintf("You spent %.2f on %s, well above your average of %.2f.",
			amount, t.CategoryName, avg),
		RelatedID: transactionID,
	}, time.Now())
	if err != nil {
		return err
	}
	if created {
		slog.InfoContext(ctx, "Unusual spending alert created",
			"user_id", userID,
			"transaction_id", transactionID,
			"amount", amount,
			"category_avg", avg)
	}
	return nil
}

// RemindUpcomingBills creates one reminder per recurring payment due
// within the reminder window.
func (s *NotificationService) RemindUpcomingBills(ctx context.Context, now time.Time) (int, error) {
	upcoming, err := s.storage.ListUpcomingRecurring(ctx, now, UpcomingBillWindowDays)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range upcoming {
		days := core.DaysUntilDue(p.NextDueDate, now)
		when := "today"
		if days == 1 {
			when = "tomorrow"
		} else if days > 1 {
			when = fmt.Sprintf("in %d days", days)
		}

		ok, err := s.createOnce(ctx, core.Notification{
			UserID:   p.UserID,
			Type:     core.NotifyUpcomingBill,
			Severity: core.SeverityInfo,
			Title:    "Upcoming bill",
			Message: fmt.Sprintf("%s (%.2f from %s) is due %s.",
				p.CategoryName, math.Abs(p.Amount), p.AccountName, when),
			RelatedID: p.ID,
		}, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create bill reminder",
				"recurring_id", p.ID, "error", err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// CheckBudgets alerts every user whose active budgets have reached the
// warning or exceeded threshold.
func (s *NotificationService) CheckBudgets(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := s.storage.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, userID := range userIDs {
		n, err := s.CheckUserBudgets(ctx, userID, now)
		created += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check budgets",
				"user_id", userID, "error", err)
		}
	}
	return created, nil
}

// CheckUserBudgets alerts one user about budgets at or past the
// warning threshold. Reports how many alerts were created.
func (s *NotificationService) CheckUserBudgets(ctx context.Context, userID int64, now time.Time) (int, error) {
	budgets, err := s.storage.ListActiveBudgets(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, b := range budgets {
		pct, err := core.BudgetPercentage(b.Spent, b.AmountLimit)
		if err != nil {
			continue
		}
		status := core.ClassifyBudget(pct)

		var severity core.Severity
		var title string
		switch status {
		case core.StatusExceeded:
			severity = core.SeverityDanger
			title = "Budget exceeded"
		case core.StatusWarning:
			severity = core.SeverityWarning
			title = "Budget almost used up"
		default:
			continue
		}

		ok, err := s.createOnce(ctx, core.Notification{
			UserID:   userID,
			Type:     core.NotifyBudgetAlert,
			Severity: severity,
			Title:    title,
			Message: fmt.Sprintf("Your %s budget is at %.1f%% (%.2f of %.2f).",
				b.CategoryName, pct, b.Spent, b.AmountLimit),
			RelatedID: b.ID,
		}, now)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// createOnce inserts the notification unless an equivalent one already
// exists on now's day. Reports whether a row was created.
func (s *NotificationService) createOnce(ctx context.Context, n core.Notification, now time.Time) (bool, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)

	exists, err := s.storage.HasNotificationSince(ctx, n.UserID, n.Type, n.RelatedID, startOfDay)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := s.storage.CreateNotification(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}
