// Package worker turns transaction events from the queue into
// notifications.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const handleTimeout = 30 * time.Second

// NotificationWorker handles queued transaction events and runs the
// periodic budget sweep.
type NotificationWorker struct {
	storage       *storage.SQLiteRepository
	notifications *services.NotificationService
	batchSize     int
}

func NewNotificationWorker(
	repo *storage.SQLiteRepository,
	notifications *services.NotificationService,
	batchSize int,
) *NotificationWorker {
	return &NotificationWorker{
		storage:       repo,
		notifications: notifications,
		batchSize:     batchSize,
	}
}

// HandleTransactionEvent checks one published transaction for unusual
// spending. Returning an error requeues the delivery.
func (w *NotificationWorker) HandleTransactionEvent(event *amqp.TransactionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	slog.DebugContext(ctx, "Handling transaction event",
		"transaction_id", event.TransactionID,
		"user_id", event.UserID)

	if err := w.notifications.CheckUnusualSpending(ctx, event.UserID, event.TransactionID, event.CategoryID); err != nil {
		return fmt.Errorf("check unusual spending for transaction %d: %w", event.TransactionID, err)
	}
	return nil
}

// SweepBudgets walks all users in batches and records budget alerts.
// A batch boundary is where a shutdown can interrupt the sweep.
func (w *NotificationWorker) SweepBudgets(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := w.storage.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	created := 0
	for start := 0; start < len(userIDs); start += w.batchSize {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		end := start + w.batchSize
		if end > len(userIDs) {
			end = len(userIDs)
		}
		for _, userID := range userIDs[start:end] {
			n, err := w.notifications.CheckUserBudgets(ctx, userID, now)
			created += n
			if err != nil {
				slog.ErrorContext(ctx, "Budget sweep failed for user",
					"user_id", userID, "error", err)
			}
		}
	}

	if created > 0 {
		slog.InfoContext(ctx, "Budget sweep complete",
			"users", len(userIDs), "alerts_created", created)
	}
	return created, nil
}
