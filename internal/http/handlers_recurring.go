package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type recurringRequest struct {
	AccountID  int64   `json:"account_id"`
	CategoryID int64   `json:"category_id"`
	Amount     float64 `json:"amount"`
	Frequency  string  `json:"frequency"`
	StartDate  string  `json:"start_date"`
	IsActive   *bool   `json:"is_active"`
	NextDue    string  `json:"next_due_date"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	payments, err := s.storage.ListRecurring(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "recurring payments")
		return
	}

	if key := r.URL.Query().Get("sort_by"); key != "" {
		state := core.SortState{
			Key:        core.SortKey(key),
			Descending: strings.EqualFold(r.URL.Query().Get("sort_order"), "desc"),
		}
		payments = core.SortRecurring(payments, state)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"recurring_payments": viewRecurringList(payments, time.Now()),
	})
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment := core.RecurringPayment{
		UserID:     userID,
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Frequency:  core.Frequency(req.Frequency),
		IsActive:   true,
	}
	if req.IsActive != nil {
		payment.IsActive = *req.IsActive
	}

	var err error
	if payment.StartDate, err = core.ParseDate(req.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	// The schedule starts at the start date.
	payment.NextDueDate = payment.StartDate

	if err := payment.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.storage.GetAccount(r.Context(), userID, payment.AccountID); err != nil {
		writeStorageError(w, r, err, "account")
		return
	}
	if _, err := s.storage.GetCategory(r.Context(), userID, payment.CategoryID); err != nil {
		writeStorageError(w, r, err, "category")
		return
	}

	id, err := s.storage.CreateRecurring(r.Context(), payment)
	if err != nil {
		writeStorageError(w, r, err, "recurring payment")
		return
	}

	created, err := s.storage.GetRecurring(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "recurring payment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recurring_payment": viewRecurring(*created, time.Now())})
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	payment, err := s.storage.GetRecurring(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		writeStorageError(w, r, err, "recurring payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring_payment": viewRecurring(*payment, time.Now())})
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	existing, err := s.storage.GetRecurring(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "recurring payment")
		return
	}

	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.AccountID != 0 {
		existing.AccountID = req.AccountID
	}
	if req.CategoryID != 0 {
		existing.CategoryID = req.CategoryID
	}
	if req.Amount != 0 {
		existing.Amount = req.Amount
	}
	if req.Frequency != "" {
		existing.Frequency = core.Frequency(req.Frequency)
	}
	if req.StartDate != "" {
		if existing.StartDate, err = core.ParseDate(req.StartDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
	}
	if req.NextDue != "" {
		if existing.NextDueDate, err = core.ParseDate(req.NextDue); err != nil {
			writeError(w, http.StatusBadRequest, "invalid next_due_date")
			return
		}
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if err := existing.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.storage.UpdateRecurring(r.Context(), *existing); err != nil {
		writeStorageError(w, r, err, "recurring payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring_payment": viewRecurring(*existing, time.Now())})
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := s.storage.DeleteRecurring(r.Context(), userID, pathID(r, "id")); err != nil {
		writeStorageError(w, r, err, "recurring payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "recurring payment deleted"})
}

func (s *Server) handleExecuteRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	payment, err := s.recurring.ExecuteOne(r.Context(), userID, pathID(r, "id"), time.Now())
	if err != nil {
		writeServiceError(w, r, err, "recurring payment")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "recurring payment executed",
		"recurring_payment": viewRecurring(*payment, time.Now()),
	})
}

// handleDueRecurring lists the user's active payments that are due now
// or overdue.
func (s *Server) handleDueRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	now := time.Now()

	payments, err := s.storage.ListRecurring(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "recurring payments")
		return
	}

	due := payments[:0]
	for _, p := range payments {
		if p.IsActive && core.DaysUntilDue(p.NextDueDate, now) <= 0 {
			due = append(due, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring_payments": viewRecurringList(due, now)})
}

// handleUpcomingRecurring lists active payments inside the due-soon
// window.
func (s *Server) handleUpcomingRecurring(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	now := time.Now()

	payments, err := s.storage.ListRecurring(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "recurring payments")
		return
	}

	upcoming := payments[:0]
	for _, p := range payments {
		if p.IsActive && p.IsDueSoon(now) {
			upcoming = append(upcoming, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recurring_payments": viewRecurringList(upcoming, now)})
}
