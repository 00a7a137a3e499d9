package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type accountRequest struct {
	Name    string   `json:"account_name"`
	Type    string   `json:"account_type"`
	Balance *float64 `json:"balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	accounts, err := s.storage.ListAccounts(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "accounts")
		return
	}

	views := make([]accountView, len(accounts))
	total := 0.0
	for i, a := range accounts {
		views[i] = viewAccount(a)
		total += a.Balance
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts":      views,
		"total_balance": core.Round2(total),
	})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := core.Account{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Type:   core.AccountType(req.Type),
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if err := account.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.storage.CreateAccount(r.Context(), account)
	if err != nil {
		writeStorageError(w, r, err, "account")
		return
	}

	created, err := s.storage.GetAccount(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "account")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"account": viewAccount(*created)})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	account, err := s.storage.GetAccount(r.Context(), userID, pathID(r, "id"))
	if err != nil {
		writeStorageError(w, r, err, "account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": viewAccount(*account)})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	account, err := s.storage.GetAccount(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "account")
		return
	}

	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != "" {
		account.Name = strings.TrimSpace(req.Name)
	}
	if req.Type != "" {
		account.Type = core.AccountType(req.Type)
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if err := account.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.storage.UpdateAccount(r.Context(), *account); err != nil {
		writeStorageError(w, r, err, "account")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]any{"account": viewAccount(*account)})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	if err := s.storage.DeleteAccount(r.Context(), userID, pathID(r, "id")); err != nil {
		writeStorageError(w, r, err, "account")
		return
	}

	s.invalidateAnalytics(userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}
