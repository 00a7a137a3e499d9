package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// ListCategories returns the shared system categories followed by the
// user's own, income before expense within each group.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, COALESCE(user_id, 0), category_name, type
		 FROM categories
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY user_id IS NOT NULL, type, category_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory resolves a category visible to the user, system or owned.
func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id int64) (*core.Category, error) {
	var c core.Category
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT category_id, COALESCE(user_id, 0), category_name, type
		 FROM categories
		 WHERE category_id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.CategoryType(typ)
	return &c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, category_name, type) VALUES (?, ?, ?)`,
		c.UserID, c.Name, string(c.Type))
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	return id, nil
}

// UpdateCategory only touches user-owned rows; system categories are
// read-only.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET category_name = ?, type = ?
		 WHERE category_id = ? AND user_id = ?`,
		c.Name, string(c.Type), c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE category_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// CategoryInUse reports whether any transaction, budget or recurring
// payment still references the category.
func (r *SQLiteRepository) CategoryInUse(ctx context.Context, id int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?)
		      + (SELECT COUNT(*) FROM budgets WHERE category_id = ?)
		      + (SELECT COUNT(*) FROM recurring_payments WHERE category_id = ?)`,
		id, id, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check category usage: %w", err)
	}
	return n > 0, nil
}
