package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, account_name, account_type, balance) VALUES (?, ?, ?, ?)`,
		a.UserID, a.Name, string(a.Type), a.Balance)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id, user_id, account_name, account_type, balance, created_at
		 FROM accounts WHERE user_id = ? ORDER BY account_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		var a core.Account
		var typ string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Balance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Type = core.AccountType(typ)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id int64) (*core.Account, error) {
	var a core.Account
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, user_id, account_name, account_type, balance, created_at
		 FROM accounts WHERE account_id = ? AND user_id = ?`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Balance, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	a.Type = core.AccountType(typ)
	return &a, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET account_name = ?, account_type = ?, balance = ?
		 WHERE account_id = ? AND user_id = ?`,
		a.Name, string(a.Type), a.Balance, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE account_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// AdjustAccountBalance applies a signed delta to an account's balance.
// Callers compute the delta from the transaction's category type.
func (r *SQLiteRepository) AdjustAccountBalance(ctx context.Context, accountID int64, delta float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + ? WHERE account_id = ?`, delta, accountID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
