package http

import (
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// invalidateAnalytics drops a user's cached analytics after any write
// that can change derived figures.
func (s *Server) invalidateAnalytics(userID int64) {
	s.analyticsCache.DeletePrefix(fmt.Sprintf("user:%d:", userID))
}

func analyticsKey(userID int64, name string) string {
	return fmt.Sprintf("user:%d:%s", userID, name)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	key := analyticsKey(userID, "dashboard")
	if cached, ok := s.analyticsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)

	summary, err := s.storage.GetDashboardSummary(r.Context(), userID, monthStart, monthEnd)
	if err != nil {
		writeStorageError(w, r, err, "dashboard")
		return
	}

	recent, _, err := s.storage.ListTransactions(r.Context(), userID, storage.TransactionFilter{Limit: 10})
	if err != nil {
		writeStorageError(w, r, err, "transactions")
		return
	}

	resp := map[string]any{
		"account_count":       summary.AccountCount,
		"total_balance":       core.Round2(summary.TotalBalance),
		"month_income":        core.Round2(summary.MonthIncome),
		"month_expense":       core.Round2(summary.MonthExpense),
		"month_net":           core.Round2(summary.MonthIncome - summary.MonthExpense),
		"transaction_count":   summary.TransactionCount,
		"recent_transactions": viewTransactions(recent),
	}

	s.analyticsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := parseWireTime(v, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := parseWireTime(v, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		end = t
	}

	breakdown, err := s.storage.GetSpendingByCategory(r.Context(), userID, start, end)
	if err != nil {
		writeStorageError(w, r, err, "spending by category")
		return
	}

	type categoryStats struct {
		CategoryID int64   `json:"category_id"`
		Name       string  `json:"category_name"`
		Count      int     `json:"count"`
		Sum        float64 `json:"sum"`
		Average    float64 `json:"average"`
		Min        float64 `json:"min"`
		Max        float64 `json:"max"`
	}
	stats := make([]categoryStats, len(breakdown))
	for i, b := range breakdown {
		stats[i] = categoryStats{
			CategoryID: b.CategoryID,
			Name:       b.Name,
			Count:      b.Count,
			Sum:        core.Round2(b.Total),
			Average:    core.Round2(b.Average),
			Min:        core.Round2(b.Min),
			Max:        core.Round2(b.Max),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start_date": core.FormatDate(start),
		"end_date":   core.FormatDate(end),
		"categories": stats,
	})
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	months := queryInt(r, "months", 6)
	if months < 1 || months > 36 {
		writeError(w, http.StatusBadRequest, "months must be between 1 and 36")
		return
	}

	trend, err := s.storage.GetMonthlyTrend(r.Context(), userID, months)
	if err != nil {
		writeStorageError(w, r, err, "monthly trend")
		return
	}

	type monthPoint struct {
		Month   string  `json:"month"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
	}
	points := make([]monthPoint, len(trend))
	for i, m := range trend {
		points[i] = monthPoint{
			Month:   m.Month,
			Income:  core.Round2(m.Income),
			Expense: core.Round2(m.Expense),
			Net:     core.Round2(m.Income - m.Expense),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"months": points})
}

func (s *Server) handleYearlySummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	years := queryInt(r, "years", 5)
	if years < 1 || years > 20 {
		writeError(w, http.StatusBadRequest, "years must be between 1 and 20")
		return
	}

	summary, err := s.storage.GetYearlySummary(r.Context(), userID, years)
	if err != nil {
		writeStorageError(w, r, err, "yearly summary")
		return
	}

	type yearPoint struct {
		Year    string  `json:"year"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Net     float64 `json:"net"`
	}
	points := make([]yearPoint, len(summary))
	for i, y := range summary {
		points[i] = yearPoint{
			Year:    y.Year,
			Income:  core.Round2(y.Income),
			Expense: core.Round2(y.Expense),
			Net:     core.Round2(y.Income - y.Expense),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"years": points})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	month := r.URL.Query().Get("month")
	if month != "" {
		if _, err := time.Parse("2006-01", month); err != nil {
			writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
	}

	report, err := s.storage.GetMonthlyReport(r.Context(), userID, month)
	if err != nil {
		writeStorageError(w, r, err, "monthly report")
		return
	}

	type reportRow struct {
		Month        string  `json:"month_year"`
		CategoryName string  `json:"category_name"`
		Type         string  `json:"type"`
		Total        float64 `json:"total_amount"`
	}
	rows := make([]reportRow, len(report))
	for i, row := range report {
		rows[i] = reportRow{
			Month:        row.Month,
			CategoryName: row.CategoryName,
			Type:         string(row.Type),
			Total:        core.Round2(row.Total),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"report": rows})
}

// handleUnusualSpendingStats exposes the per-category history the
// unusual-spending check works from, with its alert threshold.
func (s *Server) handleUnusualSpendingStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	stats, err := s.storage.ListCategoryAlertStats(r.Context(), userID, services.MinSpendingSamples)
	if err != nil {
		writeStorageError(w, r, err, "spending stats")
		return
	}

	type alertStats struct {
		CategoryID     int64   `json:"category_id"`
		CategoryName   string  `json:"category_name"`
		AverageSpent   float64 `json:"average_spent"`
		MaxSpent       float64 `json:"max_spent"`
		AlertThreshold float64 `json:"alert_threshold"`
	}
	alerts := make([]alertStats, len(stats))
	for i, st := range stats {
		alerts[i] = alertStats{
			CategoryID:     st.CategoryID,
			CategoryName:   st.CategoryName,
			AverageSpent:   core.Round2(st.Average),
			MaxSpent:       core.Round2(st.Max),
			AlertThreshold: core.Round2(st.Average * services.UnusualSpendingRatio),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleRollingExpense(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	rolling, err := s.storage.GetRollingExpense(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "rolling expense")
		return
	}

	type rollingRow struct {
		CategoryID   int64   `json:"category_id"`
		CategoryName string  `json:"category_name"`
		Month        string  `json:"month_year"`
		Total        float64 `json:"total_amount"`
		Rolling3Mo   float64 `json:"rolling_3_month_total"`
	}
	rows := make([]rollingRow, len(rolling))
	for i, re := range rolling {
		rows[i] = rollingRow{
			CategoryID:   re.CategoryID,
			CategoryName: re.CategoryName,
			Month:        re.Month,
			Total:        core.Round2(re.Total),
			Rolling3Mo:   core.Round2(re.Rolling3Mo),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"rolling_expense": rows})
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	key := analyticsKey(userID, "budget-status")
	if cached, ok := s.analyticsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	budgets, err := s.storage.ListActiveBudgets(r.Context(), userID, time.Now())
	if err != nil {
		writeStorageError(w, r, err, "budgets")
		return
	}

	resp := map[string]any{"budgets": viewBudgets(budgets)}
	s.analyticsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
