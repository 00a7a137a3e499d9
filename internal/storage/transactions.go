package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero-valued fields are
// ignored; date bounds are inclusive.
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	GroupID    int64
	StartDate  time.Time
	EndDate    time.Time
	Limit      int
	Offset     int
}

const transactionColumns = `
	t.transaction_id, t.user_id, t.account_id, t.category_id,
	COALESCE(t.group_id, 0), COALESCE(t.recurring_id, 0),
	t.amount, COALESCE(t.original_amount, 0), t.currency_code, t.exchange_rate,
	t.transaction_date, t.description,
	a.account_name, c.category_name, c.type`

const transactionJoins = `
	FROM transactions t
	JOIN accounts a ON a.account_id = t.account_id
	JOIN categories c ON c.category_id = t.category_id`

// CreateTransaction inserts the row and applies balanceDelta to the
// account in one database transaction, so balances never drift from
// the ledger.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction, balanceDelta float64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (user_id, account_id, category_id, group_id, recurring_id,
		  amount, original_amount, currency_code, exchange_rate, transaction_date, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.CategoryID, nullID(t.GroupID), nullID(t.RecurringID),
		t.Amount, nullAmount(t.OriginalAmount), t.CurrencyCode, t.ExchangeRate,
		core.FormatDateTime(t.Date), t.Description)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	if balanceDelta != 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`,
			balanceDelta, t.AccountID); err != nil {
			return 0, fmt.Errorf("apply balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// UpdateTransaction rewrites the row, reverting the old balance effect
// on oldAccountID and applying the new one on t.AccountID atomically.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction, oldAccountID int64, revertDelta, applyDelta float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET
		 account_id = ?, category_id = ?, group_id = ?,
		 amount = ?, original_amount = ?, currency_code = ?, exchange_rate = ?,
		 transaction_date = ?, description = ?
		 WHERE transaction_id = ? AND user_id = ?`,
		t.AccountID, t.CategoryID, nullID(t.GroupID),
		t.Amount, nullAmount(t.OriginalAmount), t.CurrencyCode, t.ExchangeRate,
		core.FormatDateTime(t.Date), t.Description,
		t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return err
	}

	if revertDelta != 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`,
			revertDelta, oldAccountID); err != nil {
			return fmt.Errorf("revert balance: %w", err)
		}
	}
	if applyDelta != 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`,
			applyDelta, t.AccountID); err != nil {
			return fmt.Errorf("apply balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteTransaction removes the row and reverts its balance effect.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id, accountID int64, revertDelta float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE transaction_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return err
	}

	if revertDelta != 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`,
			revertDelta, accountID); err != nil {
			return fmt.Errorf("revert balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+transactionColumns+transactionJoins+`
		 WHERE t.transaction_id = ? AND t.user_id = ?`, id, userID)

	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns newest-first transactions matching the
// filter, plus the total match count for pagination.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, int, error) {
	where := ` WHERE t.user_id = ?`
	args := []any{userID}

	if f.AccountID != 0 {
		where += ` AND t.account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.CategoryID != 0 {
		where += ` AND t.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.GroupID != 0 {
		where += ` AND t.group_id = ?`
		args = append(args, f.GroupID)
	}
	if !f.StartDate.IsZero() {
		where += ` AND t.transaction_date >= ?`
		args = append(args, core.FormatDateTime(f.StartDate))
	}
	if !f.EndDate.IsZero() {
		where += ` AND t.transaction_date <= ?`
		args = append(args, core.FormatDateTime(f.EndDate))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT` + transactionColumns + transactionJoins + where +
		` ORDER BY t.transaction_date DESC, t.transaction_id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, total, rows.Err()
}

// CategorySpendingStats returns the average and maximum expense amount
// the user has recorded in a category before the given transaction.
func (r *SQLiteRepository) CategorySpendingStats(ctx context.Context, userID, categoryID, excludeID int64) (avg, max float64, count int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(ABS(amount)), 0), COALESCE(MAX(ABS(amount)), 0), COUNT(*)
		 FROM transactions
		 WHERE user_id = ? AND category_id = ? AND transaction_id != ?`,
		userID, categoryID, excludeID).Scan(&avg, &max, &count)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("category spending stats: %w", err)
	}
	return avg, max, count, nil
}

func nullAmount(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

func scanTransaction(scan func(...any) error) (*core.Transaction, error) {
	var t core.Transaction
	var date, ctype string
	err := scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID,
		&t.GroupID, &t.RecurringID,
		&t.Amount, &t.OriginalAmount, &t.CurrencyCode, &t.ExchangeRate,
		&date, &t.Description,
		&t.AccountName, &t.CategoryName, &ctype)
	if err != nil {
		return nil, err
	}
	t.CategoryType = core.CategoryType(ctype)
	t.Date, err = core.ParseDateTime(date)
	if err != nil {
		return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	return &t, nil
}
