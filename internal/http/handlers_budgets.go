package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type budgetRequest struct {
	CategoryID  int64   `json:"category_id"`
	AmountLimit float64 `json:"amount_limit"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
}

func (req budgetRequest) toBudget(userID int64) (core.Budget, error) {
	b := core.Budget{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		AmountLimit: req.AmountLimit,
	}
	var err error
	if b.StartDate, err = core.ParseDate(req.StartDate); err != nil {
		return b, core.ErrInvalidDateRange
	}
	if b.EndDate, err = core.ParseDate(req.EndDate); err != nil {
		return b, core.ErrInvalidDateRange
	}
	return b, b.Validate()
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	budgets, err := s.storage.ListBudgets(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "budgets")
		return
	}

	// Status is derived, so classify before filtering or sorting.
	for i := range budgets {
		pct, err := core.BudgetPercentage(budgets[i].Spent, budgets[i].AmountLimit)
		if err != nil {
			continue
		}
		budgets[i].Percentage = pct
		budgets[i].Status = core.ClassifyBudget(pct)
	}

	budgets = core.FilterBudgetsByStatus(budgets, r.URL.Query().Get("status"))
	if key := r.URL.Query().Get("sort_by"); key != "" {
		budgets = core.SortBudgets(budgets, core.SortState{
			Key:        core.SortKey(key),
			Descending: !strings.EqualFold(r.URL.Query().Get("sort_order"), "asc"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"budgets": viewBudgets(budgets)})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := req.toBudget(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.storage.GetCategory(r.Context(), userID, budget.CategoryID); err != nil {
		writeStorageError(w, r, err, "category")
		return
	}

	overlap, err := s.storage.HasOverlappingBudget(r.Context(), userID, budget.CategoryID, 0,
		budget.StartDate, budget.EndDate)
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}
	if overlap {
		writeError(w, http.StatusConflict, "a budget for this category already covers part of the period")
		return
	}

	id, err := s.storage.CreateBudget(r.Context(), budget)
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}

	created, err := s.storage.GetBudget(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusCreated, map[string]any{"budget": viewBudget(*created)})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	budget, err := s.storage.GetBudget(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": viewBudget(*budget)})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	existing, err := s.storage.GetBudget(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.CategoryID != 0 {
		existing.CategoryID = req.CategoryID
	}
	if req.AmountLimit != 0 {
		existing.AmountLimit = req.AmountLimit
	}
	if req.StartDate != "" {
		if existing.StartDate, err = core.ParseDate(req.StartDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
	}
	if req.EndDate != "" {
		if existing.EndDate, err = core.ParseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
	}
	if err := existing.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overlap, err := s.storage.HasOverlappingBudget(r.Context(), userID, existing.CategoryID, id,
		existing.StartDate, existing.EndDate)
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}
	if overlap {
		writeError(w, http.StatusConflict, "a budget for this category already covers part of the period")
		return
	}

	if err := s.storage.UpdateBudget(r.Context(), *existing); err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}

	updated, err := s.storage.GetBudget(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]any{"budget": viewBudget(*updated)})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := s.storage.DeleteBudget(r.Context(), userID, pathID(r, "id")); err != nil {
		writeStorageError(w, r, err, "budget")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "budget deleted"})
}
