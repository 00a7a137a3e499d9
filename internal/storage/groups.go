package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// GroupTransaction is a shared-ledger entry annotated with who spent.
type GroupTransaction struct {
	core.Transaction
	Username string
}

// MemberShare is one member's contribution to a group's spending.
type MemberShare struct {
	UserID   int64
	Username string
	Total    float64
}

// CreateGroup inserts the group and enrolls its creator as the first
// member atomically.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, name string, createdBy int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO groups (group_name, created_by) VALUES (?, ?)`, name, createdBy)
	if err != nil {
		return 0, fmt.Errorf("create group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("group id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`, createdBy, id); err != nil {
		return 0, fmt.Errorf("enroll creator: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

const groupColumns = `
	g.group_id, g.group_name, g.created_by, u.username, g.created_at,
	(SELECT COUNT(*) FROM user_groups ug WHERE ug.group_id = g.group_id) AS member_count,
	COALESCE((
		SELECT SUM(ABS(t.amount)) FROM transactions t
		JOIN categories c ON c.category_id = t.category_id
		WHERE t.group_id = g.group_id AND c.type = 'Expense'
	), 0) AS total_spent`

// ListGroups returns every group the user belongs to.
func (r *SQLiteRepository) ListGroups(ctx context.Context, userID int64) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+groupColumns+`
		 FROM groups g
		 JOIN users u ON u.user_id = g.created_by
		 JOIN user_groups m ON m.group_id = g.group_id AND m.user_id = ?
		 ORDER BY g.group_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []core.Group{}
	for rows.Next() {
		var g core.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatorName,
			&g.CreatedAt, &g.MemberCount, &g.TotalSpent); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.IsCreator = g.CreatedBy == userID
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup returns the group if the user is a member.
func (r *SQLiteRepository) GetGroup(ctx context.Context, userID, id int64) (*core.Group, error) {
	var g core.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT`+groupColumns+`
		 FROM groups g
		 JOIN users u ON u.user_id = g.created_by
		 JOIN user_groups m ON m.group_id = g.group_id AND m.user_id = ?
		 WHERE g.group_id = ?`, userID, id).
		Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatorName,
			&g.CreatedAt, &g.MemberCount, &g.TotalSpent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	g.IsCreator = g.CreatedBy == userID
	return &g, nil
}

func (r *SQLiteRepository) IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_groups WHERE group_id = ? AND user_id = ?`,
		groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)`, userID, groupID); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_groups WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) ListGroupMembers(ctx context.Context, groupID int64) ([]core.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.user_id, u.username, u.email, m.joined_at
		 FROM user_groups m
		 JOIN users u ON u.user_id = m.user_id
		 WHERE m.group_id = ?
		 ORDER BY m.joined_at, u.user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	members := []core.GroupMember{}
	for rows.Next() {
		var m core.GroupMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListGroupTransactions returns the group's shared ledger across all
// members, newest first.
func (r *SQLiteRepository) ListGroupTransactions(ctx context.Context, groupID int64, limit int) ([]GroupTransaction, error) {
	query := `SELECT` + transactionColumns + `, u.username` + transactionJoins + `
		 JOIN users u ON u.user_id = t.user_id
		 WHERE t.group_id = ?
		 ORDER BY t.transaction_date DESC, t.transaction_id DESC`
	args := []any{groupID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list group transactions: %w", err)
	}
	defer rows.Close()

	transactions := []GroupTransaction{}
	for rows.Next() {
		var gt GroupTransaction
		t, err := scanGroupTransaction(rows, &gt.Username)
		if err != nil {
			return nil, err
		}
		gt.Transaction = *t
		transactions = append(transactions, gt)
	}
	return transactions, rows.Err()
}

// GroupMemberShares totals each member's expense contribution.
func (r *SQLiteRepository) GroupMemberShares(ctx context.Context, groupID int64) ([]MemberShare, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.user_id, u.username,
		        COALESCE(SUM(CASE WHEN c.type = 'Expense' THEN ABS(t.amount) ELSE 0 END), 0)
		 FROM user_groups m
		 JOIN users u ON u.user_id = m.user_id
		 LEFT JOIN transactions t ON t.user_id = u.user_id AND t.group_id = m.group_id
		 LEFT JOIN categories c ON c.category_id = t.category_id
		 WHERE m.group_id = ?
		 GROUP BY u.user_id, u.username
		 ORDER BY u.user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("group member shares: %w", err)
	}
	defer rows.Close()

	shares := []MemberShare{}
	for rows.Next() {
		var s MemberShare
		if err := rows.Scan(&s.UserID, &s.Username, &s.Total); err != nil {
			return nil, fmt.Errorf("scan member share: %w", err)
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func (r *SQLiteRepository) DeleteGroup(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE group_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func scanGroupTransaction(rows *sql.Rows, username *string) (*core.Transaction, error) {
	var t core.Transaction
	var date, ctype string
	err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID,
		&t.GroupID, &t.RecurringID,
		&t.Amount, &t.OriginalAmount, &t.CurrencyCode, &t.ExchangeRate,
		&date, &t.Description,
		&t.AccountName, &t.CategoryName, &ctype, username)
	if err != nil {
		return nil, fmt.Errorf("scan group transaction: %w", err)
	}
	t.CategoryType = core.CategoryType(ctype)
	t.Date, err = core.ParseDateTime(date)
	if err != nil {
		return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	return &t, nil
}
