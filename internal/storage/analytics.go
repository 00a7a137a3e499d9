package storage

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DashboardSummary aggregates the figures shown on the overview page.
type DashboardSummary struct {
	TotalBalance     float64
	AccountCount     int
	MonthIncome      float64
	MonthExpense     float64
	TransactionCount int
}

// CategoryAmount is one slice of the spending-by-category breakdown.
type CategoryAmount struct {
	CategoryID int64
	Name       string
	Total      float64
	Count      int
	Average    float64
	Min        float64
	Max        float64
}

// MonthSummary is one point of the monthly income/expense trend.
type MonthSummary struct {
	Month   string // YYYY-MM
	Income  float64
	Expense float64
}

// YearSummary is one point of the yearly income/expense summary.
type YearSummary struct {
	Year    string // YYYY
	Income  float64
	Expense float64
}

// MonthCategoryTotal is one row of the monthly report: what one
// category moved in one month.
type MonthCategoryTotal struct {
	Month        string // YYYY-MM
	CategoryName string
	Type         core.CategoryType
	Total        float64
}

// CategoryAlertStats summarizes a category's expense history next to
// the threshold the unusual-spending check applies.
type CategoryAlertStats struct {
	CategoryID   int64
	CategoryName string
	Average      float64
	Max          float64
	Count        int
}

// RollingExpense is a category's expense total for one month together
// with its trailing three-month sum.
type RollingExpense struct {
	CategoryID   int64
	CategoryName string
	Month        string // YYYY-MM
	Total        float64
	Rolling3Mo   float64
}

// GetDashboardSummary computes account totals plus income and expense
// for the period, normally the current month.
func (r *SQLiteRepository) GetDashboardSummary(ctx context.Context, userID int64, start, end time.Time) (*DashboardSummary, error) {
	var s DashboardSummary

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0), COUNT(*) FROM accounts WHERE user_id = ?`,
		userID).Scan(&s.TotalBalance, &s.AccountCount)
	if err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT
		    COALESCE(SUM(CASE WHEN c.type = 'Income' THEN ABS(t.amount) ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN c.type = 'Expense' THEN ABS(t.amount) ELSE 0 END), 0),
		    COUNT(*)
		 FROM transactions t
		 JOIN categories c ON c.category_id = t.category_id
		 WHERE t.user_id = ? AND t.transaction_date >= ? AND t.transaction_date <= ?`,
		userID, core.FormatDateTime(start), core.FormatDateTime(end)).
		Scan(&s.MonthIncome, &s.MonthExpense, &s.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("period totals: %w", err)
	}

	return &s, nil
}

// GetSpendingByCategory breaks expenses in the period down per
// category, largest first.
func (r *SQLiteRepository) GetSpendingByCategory(ctx context.Context, userID int64, start, end time.Time) ([]CategoryAmount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.category_id, c.category_name,
		        SUM(ABS(t.amount)), COUNT(*),
		        AVG(ABS(t.amount)), MIN(ABS(t.amount)), MAX(ABS(t.amount))
		 FROM transactions t
		 JOIN categories c ON c.category_id = t.category_id
		 WHERE t.user_id = ? AND c.type = 'Expense'
		   AND t.transaction_date >= ? AND t.transaction_date <= ?
		 GROUP BY c.category_id, c.category_name
		 ORDER BY SUM(ABS(t.amount)) DESC`,
		userID, core.FormatDateTime(start), core.FormatDateTime(end))
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	result := []CategoryAmount{}
	for rows.Next() {
		var ca CategoryAmount
		if err := rows.Scan(&ca.CategoryID, &ca.Name, &ca.Total, &ca.Count,
			&ca.Average, &ca.Min, &ca.Max); err != nil {
			return nil, fmt.Errorf("scan category amount: %w", err)
		}
		result = append(result, ca)
	}
	return result, rows.Err()
}

// GetMonthlyTrend returns per-month income and expense totals for the
// last `months` months, oldest first.
func (r *SQLiteRepository) GetMonthlyTrend(ctx context.Context, userID int64, months int) ([]MonthSummary, error) {
	since := time.Now().AddDate(0, -months, 0)
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', t.transaction_date),
		    COALESCE(SUM(CASE WHEN c.type = 'Income' THEN ABS(t.amount) ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN c.type = 'Expense' THEN ABS(t.amount) ELSE 0 END), 0)
		 FROM transactions t
		 JOIN categories c ON c.category_id = t.category_id
		 WHERE t.user_id = ? AND t.transaction_date >= ?
		 GROUP BY strftime('%Y-%m', t.transaction_date)
		 ORDER BY strftime('%Y-%m', t.transaction_date)`,
		userID, core.FormatDateTime(since))
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	defer rows.Close()

	trend := []MonthSummary{}
	for rows.Next() {
		var m MonthSummary
		if err := rows.Scan(&m.Month, &m.Income, &m.Expense); err != nil {
			return nil, fmt.Errorf("scan month summary: %w", err)
		}
		trend = append(trend, m)
	}
	return trend, rows.Err()
}

// GetYearlySummary returns per-year income and expense totals for the
// last `years` years, oldest first.
func (r *SQLiteRepository) GetYearlySummary(ctx context.Context, userID int64, years int) ([]YearSummary, error) {
	since := time.Date(time.Now().Year()-years+1, 1, 1, 0, 0, 0, 0, time.Local)
	rows, err := r.db.QueryContext(ctx,
		`SELECT strftime('%Y', t.transaction_date),
		    COALESCE(SUM(CASE WHEN c.type = 'Income' THEN ABS(t.amount) ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN c.type = 'Expense' THEN ABS(t.amount) ELSE 0 END), 0)
		 FROM transactions t
		 JOIN categories c ON c.category_id = t.category_id
		 WHERE t.user_id = ? AND t.transaction_date >= ?
		 GROUP BY strftime('%Y', t.transaction_date)
		 ORDER BY strftime('%Y', t.transaction_date)`,
		userID, core.FormatDateTime(since))
	if err != nil {
		return nil, fmt.Errorf("yearly summary: %w", err)
	}
	defer rows.Close()

	summary := []YearSummary{}
	for rows.Next() {
		var y YearSummary
		if err := rows.Scan(&y.Year, &y.Income, &y.Expense); err != nil {
			return nil, fmt.Errorf("scan year summary: %w", err)
		}
		summary = append(summary, y)
	}
	return summary, rows.Err()
}

// GetMonthlyReport totals each category per month, newest month first.
// An empty month returns the full history; otherwise only that YYYY-MM.
func (r *SQLiteRepository) GetMonthlyReport(ctx context.Context, userID int64, month string) ([]MonthCategoryTotal, error) {
	query := `SELECT strftime('%Y-%m', t.transaction_date) AS month,
	        c.category_name, c.type, SUM(ABS(t.amount))
	 FROM transactions t
	 JOIN categories c ON c.category_id = t.category_id
	 WHERE t.user_id = ?`
	args := []any{userID}
	if month != "" {
		query += ` AND strftime('%Y-%m', t.transaction_date) = ?`
		args = append(args, month)
	}
	query += ` GROUP BY month, c.category_id, c.category_name, c.type
	 ORDER BY month DESC, c.type, c.category_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	defer rows.Close()

	report := []MonthCategoryTotal{}
	for rows.Next() {
		var row MonthCategoryTotal
		var ctype string
		if err := rows.Scan(&row.Month, &row.CategoryName, &ctype, &row.Total); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		row.Type = core.CategoryType(ctype)
		report = append(report, row)
	}
	return report, rows.Err()
}

// ListCategoryAlertStats returns expense history per category for
// categories with at least minSamples transactions, highest average
// first.
func (r *SQLiteRepository) ListCategoryAlertStats(ctx context.Context, userID int64, minSamples int) ([]CategoryAlertStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.category_id, c.category_name,
		        AVG(ABS(t.amount)), MAX(ABS(t.amount)), COUNT(*)
		 FROM transactions t
		 JOIN categories c ON c.category_id = t.category_id
		 WHERE t.user_id = ? AND c.type = 'Expense'
		 GROUP BY c.category_id, c.category_name
		 HAVING COUNT(*) >= ?
		 ORDER BY AVG(ABS(t.amount)) DESC`,
		userID, minSamples)
	if err != nil {
		return nil, fmt.Errorf("category alert stats: %w", err)
	}
	defer rows.Close()

	stats := []CategoryAlertStats{}
	for rows.Next() {
		var s CategoryAlertStats
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Average, &s.Max, &s.Count); err != nil {
			return nil, fmt.Errorf("scan alert stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetRollingExpense returns per-category monthly expense totals with a
// trailing three-month window sum, newest month first.
func (r *SQLiteRepository) GetRollingExpense(ctx context.Context, userID int64) ([]RollingExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, category_name, month, total,
		        SUM(total) OVER (
		            PARTITION BY category_id ORDER BY month
		            ROWS BETWEEN 2 PRECEDING AND CURRENT ROW
		        ) AS rolling_total
		 FROM (
		     SELECT c.category_id, c.category_name,
		            strftime('%Y-%m', t.transaction_date) AS month,
		            SUM(ABS(t.amount)) AS total
		     FROM transactions t
		     JOIN categories c ON c.category_id = t.category_id
		     WHERE t.user_id = ? AND c.type = 'Expense'
		     GROUP BY c.category_id, c.category_name, month
		 )
		 ORDER BY month DESC, rolling_total DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("rolling expense: %w", err)
	}
	defer rows.Close()

	result := []RollingExpense{}
	for rows.Next() {
		var re RollingExpense
		if err := rows.Scan(&re.CategoryID, &re.CategoryName, &re.Month, &re.Total, &re.Rolling3Mo); err != nil {
			return nil, fmt.Errorf("scan rolling expense: %w", err)
		}
		result = append(result, re)
	}
	return result, rows.Err()
}
