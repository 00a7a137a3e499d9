package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const recurringColumns = `
	p.recurring_id, p.user_id, p.account_id, p.category_id,
	a.account_name, c.category_name,
	p.amount, p.frequency, p.start_date, p.next_due_date, p.is_active`

const recurringJoins = `
	FROM recurring_payments p
	JOIN accounts a ON a.account_id = p.account_id
	JOIN categories c ON c.category_id = p.category_id`

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, p core.RecurringPayment) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_payments
		 (user_id, account_id, category_id, amount, frequency, start_date, next_due_date, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.AccountID, p.CategoryID, p.Amount, string(p.Frequency),
		core.FormatDate(p.StartDate), core.FormatDate(p.NextDueDate), p.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create recurring payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring payment id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+recurringColumns+recurringJoins+`
		 WHERE p.user_id = ? ORDER BY p.next_due_date, p.recurring_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, userID, id int64) (*core.RecurringPayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+recurringColumns+recurringJoins+`
		 WHERE p.recurring_id = ? AND p.user_id = ?`, id, userID)

	p, err := scanRecurring(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, p core.RecurringPayment) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_payments SET
		 account_id = ?, category_id = ?, amount = ?, frequency = ?,
		 start_date = ?, next_due_date = ?, is_active = ?
		 WHERE recurring_id = ? AND user_id = ?`,
		p.AccountID, p.CategoryID, p.Amount, string(p.Frequency),
		core.FormatDate(p.StartDate), core.FormatDate(p.NextDueDate), p.IsActive,
		p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("update recurring payment: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_payments WHERE recurring_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// ListDueRecurring returns active payments across all users whose next
// due date falls on or before the given day, for scheduler execution.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, day time.Time) ([]core.RecurringPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+recurringColumns+recurringJoins+`
		 WHERE p.is_active = 1 AND p.next_due_date <= ?
		 ORDER BY p.next_due_date, p.recurring_id`, core.FormatDate(day))
	if err != nil {
		return nil, fmt.Errorf("list due recurring payments: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListUpcomingRecurring returns active payments due within the window
// [day, day+days], across all users, for bill reminders.
func (r *SQLiteRepository) ListUpcomingRecurring(ctx context.Context, day time.Time, days int) ([]core.RecurringPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+recurringColumns+recurringJoins+`
		 WHERE p.is_active = 1 AND p.next_due_date >= ? AND p.next_due_date <= ?
		 ORDER BY p.next_due_date, p.recurring_id`,
		core.FormatDate(day), core.FormatDate(day.AddDate(0, 0, days)))
	if err != nil {
		return nil, fmt.Errorf("list upcoming recurring payments: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ExecuteRecurring records the settlement transaction and advances the
// payment's next due date in one database transaction.
func (r *SQLiteRepository) ExecuteRecurring(ctx context.Context, p core.RecurringPayment, t core.Transaction, balanceDelta float64, nextDue time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (user_id, account_id, category_id, recurring_id,
		  amount, currency_code, exchange_rate, transaction_date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.CategoryID, p.ID,
		t.Amount, t.CurrencyCode, t.ExchangeRate,
		core.FormatDateTime(t.Date), t.Description)
	if err != nil {
		return 0, fmt.Errorf("record settlement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("settlement id: %w", err)
	}

	if balanceDelta != 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`,
			balanceDelta, t.AccountID); err != nil {
			return 0, fmt.Errorf("apply balance: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE recurring_payments SET next_due_date = ? WHERE recurring_id = ?`,
		core.FormatDate(nextDue), p.ID); err != nil {
		return 0, fmt.Errorf("advance due date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringPayment, error) {
	payments := []core.RecurringPayment{}
	for rows.Next() {
		p, err := scanRecurring(rows.Scan)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanRecurring(scan func(...any) error) (*core.RecurringPayment, error) {
	var p core.RecurringPayment
	var freq, start, due string
	err := scan(&p.ID, &p.UserID, &p.AccountID, &p.CategoryID,
		&p.AccountName, &p.CategoryName,
		&p.Amount, &freq, &start, &due, &p.IsActive)
	if err != nil {
		return nil, err
	}
	p.Frequency = core.Frequency(freq)
	if p.StartDate, err = core.ParseDate(start); err != nil {
		return nil, fmt.Errorf("parse recurring start %q: %w", start, err)
	}
	if p.NextDueDate, err = core.ParseDate(due); err != nil {
		return nil, fmt.Errorf("parse recurring due %q: %w", due, err)
	}
	return &p, nil
}
