package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Only expense transactions count as spent; income booked against the
// same category must not inflate budget usage.
const budgetColumns = `
	b.budget_id, b.user_id, b.category_id, c.category_name,
	b.amount_limit, b.start_date, b.end_date, b.created_at,
	COALESCE((
		SELECT SUM(ABS(t.amount)) FROM transactions t
		WHERE t.user_id = b.user_id
		  AND t.category_id = b.category_id
		  AND c.type = 'Expense'
		  AND date(t.transaction_date) BETWEEN b.start_date AND b.end_date
	), 0) AS spent`

const budgetJoins = `
	FROM budgets b
	JOIN categories c ON c.category_id = b.category_id`

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_limit, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.AmountLimit,
		core.FormatDate(b.StartDate), core.FormatDate(b.EndDate))
	if err != nil {
		return 0, fmt.Errorf("create budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget id: %w", err)
	}
	return id, nil
}

// HasOverlappingBudget reports whether another budget for the same
// category intersects the [start, end] period.
func (r *SQLiteRepository) HasOverlappingBudget(ctx context.Context, userID, categoryID, excludeID int64, start, end time.Time) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets
		 WHERE user_id = ? AND category_id = ? AND budget_id != ?
		   AND start_date <= ? AND end_date >= ?`,
		userID, categoryID, excludeID,
		core.FormatDate(end), core.FormatDate(start)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check budget overlap: %w", err)
	}
	return n > 0, nil
}

// ListBudgets returns the user's budgets with spent amounts aggregated
// from the ledger. Status and percentage are computed by the caller.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+budgetColumns+budgetJoins+`
		 WHERE b.user_id = ? ORDER BY b.budget_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

// ListActiveBudgets returns budgets whose period covers the given day.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, userID int64, day time.Time) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+budgetColumns+budgetJoins+`
		 WHERE b.user_id = ? AND b.start_date <= ? AND b.end_date >= ?
		 ORDER BY b.budget_id`,
		userID, core.FormatDate(day), core.FormatDate(day))
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+budgetColumns+budgetJoins+`
		 WHERE b.budget_id = ? AND b.user_id = ?`, id, userID)

	b, err := scanBudget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category_id = ?, amount_limit = ?, start_date = ?, end_date = ?
		 WHERE budget_id = ? AND user_id = ?`,
		b.CategoryID, b.AmountLimit,
		core.FormatDate(b.StartDate), core.FormatDate(b.EndDate),
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE budget_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func scanBudget(scan func(...any) error) (*core.Budget, error) {
	var b core.Budget
	var start, end string
	err := scan(&b.ID, &b.UserID, &b.CategoryID, &b.CategoryName,
		&b.AmountLimit, &start, &end, &b.CreatedAt, &b.Spent)
	if err != nil {
		return nil, err
	}
	if b.StartDate, err = core.ParseDate(start); err != nil {
		return nil, fmt.Errorf("parse budget start %q: %w", start, err)
	}
	if b.EndDate, err = core.ParseDate(end); err != nil {
		return nil, fmt.Errorf("parse budget end %q: %w", end, err)
	}
	return &b, nil
}
