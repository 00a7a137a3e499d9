package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const defaultTransactionLimit = 50

type transactionRequest struct {
	AccountID       int64    `json:"account_id"`
	CategoryID      int64    `json:"category_id"`
	GroupID         int64    `json:"group_id"`
	Amount          float64  `json:"amount"`
	OriginalAmount  *float64 `json:"original_amount"`
	CurrencyCode    string   `json:"currency_code"`
	ExchangeRate    *float64 `json:"exchange_rate"`
	TransactionDate string   `json:"transaction_date"`
	Description     string   `json:"description"`
}

// amountInput maps the request to the normalization engine: foreign
// mode kicks in whenever original_amount is supplied.
func (req transactionRequest) amountInput() core.AmountInput {
	in := core.AmountInput{Amount: req.Amount, ExchangeRate: 1.0}
	if req.ExchangeRate != nil {
		in.ExchangeRate = *req.ExchangeRate
	}
	if req.OriginalAmount != nil {
		in.Foreign = true
		in.OriginalAmount = *req.OriginalAmount
	}
	return in
}

func (req transactionRequest) toTransaction(userID int64) (core.Transaction, error) {
	t := core.Transaction{
		UserID:       userID,
		AccountID:    req.AccountID,
		CategoryID:   req.CategoryID,
		GroupID:      req.GroupID,
		CurrencyCode: req.CurrencyCode,
		Description:  req.Description,
		Date:         time.Now(),
	}
	if t.CurrencyCode == "" {
		t.CurrencyCode = "VND"
	}
	if t.AccountID == 0 || t.CategoryID == 0 {
		return t, fmt.Errorf("account_id and category_id are required")
	}
	if req.TransactionDate != "" {
		date, err := parseWireTime(req.TransactionDate, false)
		if err != nil {
			return t, fmt.Errorf("invalid transaction_date: %w", err)
		}
		t.Date = date
	}
	return t, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	filter := storage.TransactionFilter{
		AccountID:  queryInt64(r, "account_id"),
		CategoryID: queryInt64(r, "category_id"),
		GroupID:    queryInt64(r, "group_id"),
		Limit:      queryInt(r, "limit", defaultTransactionLimit),
		Offset:     queryInt(r, "offset", 0),
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := parseWireTime(v, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		filter.StartDate = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := parseWireTime(v, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		filter.EndDate = t
	}

	transactions, total, err := s.storage.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeStorageError(w, r, err, "transactions")
		return
	}

	// The query returns newest first; an explicit sort key reorders the page.
	if key := r.URL.Query().Get("sort_by"); key != "" {
		transactions = core.SortTransactions(transactions, core.SortState{
			Key:        core.SortKey(key),
			Descending: !strings.EqualFold(r.URL.Query().Get("sort_order"), "asc"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": viewTransactions(transactions),
		"total":        total,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := req.toTransaction(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, alert, err := s.transactions.Create(r.Context(), t, req.amountInput())
	if err != nil {
		writeServiceError(w, r, err, "transaction")
		return
	}

	s.invalidateAnalytics(userID)

	resp := map[string]any{"transaction": viewTransaction(*created)}
	if alert != nil {
		resp["spending_alert"] = alert
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	t, err := s.storage.GetTransaction(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		writeStorageError(w, r, err, "transaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": viewTransaction(*t)})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := req.toTransaction(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = pathID(r, "id")

	updated, err := s.transactions.Update(r.Context(), t, req.amountInput())
	if err != nil {
		writeServiceError(w, r, err, "transaction")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]any{"transaction": viewTransaction(*updated)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := s.transactions.Delete(r.Context(), userID, pathID(r, "id")); err != nil {
		writeStorageError(w, r, err, "transaction")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

// parseWireTime accepts both the datetime and date-only wire layouts.
// Date-only values map to start of day, or end of day for upper bounds.
func parseWireTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := core.ParseDateTime(s); err == nil {
		return t, nil
	}
	t, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return t.Add(24*time.Hour - time.Second), nil
	}
	return t, nil
}
