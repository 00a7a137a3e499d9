package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// maxCatchUpPeriods bounds how many missed periods a single run settles
// for one payment, so a long-dormant schedule cannot flood the ledger.
const maxCatchUpPeriods = 36

// ErrPaymentPaused rejects manual execution of an inactive payment.
var ErrPaymentPaused = errors.New("recurring payment is paused")

// RecurringService settles due recurring payments into the ledger and
// advances their schedules.
type RecurringService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewRecurringService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *RecurringService {
	return &RecurringService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ProcessDue executes every active payment due on or before now,
// catching up missed periods one settlement at a time. Returns the
// number of settlements recorded.
func (s *RecurringService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.storage.ListDueRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due payments: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring payments",
		"due", len(due),
		"processing_date", core.FormatDate(now))

	processed := 0
	for _, p := range due {
		n, err := s.executePayment(ctx, p, now)
		processed += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to execute recurring payment",
				"recurring_id", p.ID,
				"user_id", p.UserID,
				"error", err)
			continue
		}
	}

	return processed, nil
}

// ExecuteOne settles a single payment immediately, regardless of its
// due date. Used by the manual execute endpoint.
func (s *RecurringService) ExecuteOne(ctx context.Context, userID, id int64, now time.Time) (*core.RecurringPayment, error) {
	p, err := s.storage.GetRecurring(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("execute payment %d: %w", id, ErrPaymentPaused)
	}

	if err := s.settle(ctx, *p, now, core.NextAfter(p.Frequency, p.NextDueDate)); err != nil {
		return nil, err
	}

	return s.storage.GetRecurring(ctx, userID, id)
}

func (s *RecurringService) executePayment(ctx context.Context, p core.RecurringPayment, now time.Time) (int, error) {
	processed := 0
	for i := 0; i < maxCatchUpPeriods; i++ {
		if core.DaysUntilDue(p.NextDueDate, now) > 0 {
			break
		}
		nextDue := core.NextAfter(p.Frequency, p.NextDueDate)
		if err := s.settle(ctx, p, p.NextDueDate, nextDue); err != nil {
			return processed, err
		}
		p.NextDueDate = nextDue
		processed++
	}
	return processed, nil
}

// settle records one settlement transaction dated at `on` and advances
// the payment's schedule to nextDue, atomically.
func (s *RecurringService) settle(ctx context.Context, p core.RecurringPayment, on time.Time, nextDue time.Time) error {
	t := core.Transaction{
		UserID:       p.UserID,
		AccountID:    p.AccountID,
		CategoryID:   p.CategoryID,
		Amount:       core.Round2(p.Amount),
		CurrencyCode: "VND",
		ExchangeRate: 1.0,
		Date:         on,
		Description:  fmt.Sprintf("Recurring payment: %s", p.CategoryName),
	}

	category, err := s.storage.GetCategory(ctx, p.UserID, p.CategoryID)
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}

	id, err := s.storage.ExecuteRecurring(ctx, p, t, BalanceDelta(category.Type, t.Amount), nextDue)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Settled recurring payment",
		"recurring_id", p.ID,
		"transaction_id", id,
		"user_id", p.UserID,
		"amount", t.Amount,
		"next_due", core.FormatDate(nextDue))

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishTransactionEvent(ctx, id, p.UserID, p.CategoryID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish settlement event",
				"transaction_id", id, "error", err)
		}
	}

	return nil
}
