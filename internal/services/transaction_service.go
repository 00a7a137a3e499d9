// Package services provides business logic and orchestration between
// storage, the event queue and the derived-state rules in core.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransactionService orchestrates ledger writes: amount normalization,
// ownership checks, balance updates and event publishing.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// SpendingAlert is the inline warning returned when a new expense is
// well above the user's historical average for the category.
type SpendingAlert struct {
	CategoryName    string  `json:"category_name"`
	Amount          float64 `json:"amount"`
	CategoryAverage float64 `json:"category_average"`
}

// Create normalizes the amount, verifies the account and category
// belong to the user, persists the transaction with its balance effect
// and publishes an event for the notification worker. A spending alert
// is returned inline when the expense stands out against history.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction, in core.AmountInput) (*core.Transaction, *SpendingAlert, error) {
	amount, err := core.NormalizeAmount(in)
	if err != nil {
		return nil, nil, err
	}
	t.Amount = amount
	if in.Foreign {
		t.OriginalAmount = in.OriginalAmount
		t.ExchangeRate = in.ExchangeRate
	} else {
		t.ExchangeRate = 1.0
	}

	account, err := s.storage.GetAccount(ctx, t.UserID, t.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve account: %w", err)
	}
	category, err := s.storage.GetCategory(ctx, t.UserID, t.CategoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve category: %w", err)
	}

	if t.GroupID != 0 {
		member, err := s.storage.IsGroupMember(ctx, t.GroupID, t.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("check group membership: %w", err)
		}
		if !member {
			return nil, nil, storage.ErrNotFound
		}
	}

	alert := s.inlineAlert(ctx, t.UserID, t.CategoryID, category, t.Amount)

	id, err := s.storage.CreateTransaction(ctx, t, BalanceDelta(category.Type, t.Amount))
	if err != nil {
		return nil, nil, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id
	t.AccountName = account.Name
	t.CategoryName = category.Name
	t.CategoryType = category.Type

	s.publishEvent(ctx, id, t.UserID, t.CategoryID)

	return &t, alert, nil
}

// inlineAlert checks the new expense against the category's history so
// the API response can warn immediately, without waiting for the worker.
func (s *TransactionService) inlineAlert(ctx context.Context, userID, categoryID int64, category *core.Category, amount float64) *SpendingAlert {
	if category.Type != core.Expense {
		return nil
	}
	avg, _, count, err := s.storage.CategorySpendingStats(ctx, userID, categoryID, 0)
	if err != nil {
		slog.WarnContext(ctx, "Spending stats unavailable", "category_id", categoryID, "error", err)
		return nil
	}
	if count < MinSpendingSamples || avg <= 0 {
		return nil
	}
	if math.Abs(amount) <= avg*UnusualSpendingRatio {
		return nil
	}
	return &SpendingAlert{
		CategoryName:    category.Name,
		Amount:          math.Abs(amount),
		CategoryAverage: core.Round2(avg),
	}
}

// Update rewrites a transaction, reverting the old balance effect and
// applying the new one.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction, in core.AmountInput) (*core.Transaction, error) {
	old, err := s.storage.GetTransaction(ctx, t.UserID, t.ID)
	if err != nil {
		return nil, err
	}

	amount, err := core.NormalizeAmount(in)
	if err != nil {
		return nil, err
	}
	t.Amount = amount
	if in.Foreign {
		t.OriginalAmount = in.OriginalAmount
		t.ExchangeRate = in.ExchangeRate
	} else {
		t.OriginalAmount = 0
		t.ExchangeRate = 1.0
	}

	category, err := s.storage.GetCategory(ctx, t.UserID, t.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	if _, err := s.storage.GetAccount(ctx, t.UserID, t.AccountID); err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}

	if t.GroupID != 0 {
		member, err := s.storage.IsGroupMember(ctx, t.GroupID, t.UserID)
		if err != nil {
			return nil, fmt.Errorf("check group membership: %w", err)
		}
		if !member {
			return nil, storage.ErrNotFound
		}
	}

	revert := -BalanceDelta(old.CategoryType, old.Amount)
	apply := BalanceDelta(category.Type, t.Amount)

	if err := s.storage.UpdateTransaction(ctx, t, old.AccountID, revert, apply); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, t.ID, t.UserID, t.CategoryID)

	return s.storage.GetTransaction(ctx, t.UserID, t.ID)
}

// Delete removes a transaction and restores the account balance.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	old, err := s.storage.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}

	revert := -BalanceDelta(old.CategoryType, old.Amount)
	return s.storage.DeleteTransaction(ctx, userID, id, old.AccountID, revert)
}

// BalanceDelta is the signed effect a transaction has on its account:
// income adds, expense subtracts.
func BalanceDelta(categoryType core.CategoryType, amount float64) float64 {
	if categoryType == core.Income {
		return math.Abs(amount)
	}
	return -math.Abs(amount)
}

func (s *TransactionService) publishEvent(ctx context.Context, transactionID, userID, categoryID int64) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event")
		return
	}
	// Publishing is best effort, the ledger write already succeeded.
	if err := s.amqpClient.PublishTransactionEvent(ctx, transactionID, userID, categoryID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", transactionID, "error", err)
	}
}
