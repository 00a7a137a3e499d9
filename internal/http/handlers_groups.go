package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const groupRecentTransactions = 20

type groupRequest struct {
	Name string `json:"group_name"`
}

type addMemberRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	groups, err := s.storage.ListGroups(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "groups")
		return
	}

	views := make([]groupView, len(groups))
	for i, g := range groups {
		views[i] = viewGroup(g)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": views})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "group_name is required")
		return
	}

	id, err := s.storage.CreateGroup(r.Context(), name, userID)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}

	created, err := s.storage.GetGroup(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"group": viewGroup(*created)})
}

// handleGetGroup returns the group with its members and the most
// recent shared transactions.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	group, err := s.storage.GetGroup(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}

	members, err := s.storage.ListGroupMembers(r.Context(), id)
	if err != nil {
		writeStorageError(w, r, err, "group members")
		return
	}

	transactions, err := s.storage.ListGroupTransactions(r.Context(), id, groupRecentTransactions)
	if err != nil {
		writeStorageError(w, r, err, "group transactions")
		return
	}

	memberViews := make([]memberView, len(members))
	for i, m := range members {
		memberViews[i] = viewMember(m)
	}

	type groupTransactionView struct {
		transactionView
		Username string `json:"username"`
	}
	txViews := make([]groupTransactionView, len(transactions))
	for i, gt := range transactions {
		txViews[i] = groupTransactionView{
			transactionView: viewTransaction(gt.Transaction),
			Username:        gt.Username,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group":               viewGroup(*group),
		"members":             memberViews,
		"recent_transactions": txViews,
	})
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	group, err := s.storage.GetGroup(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}
	if !group.IsCreator {
		writeError(w, http.StatusForbidden, "only the creator can delete the group")
		return
	}

	if err := s.storage.DeleteGroup(r.Context(), id); err != nil {
		writeStorageError(w, r, err, "group")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

func (s *Server) handleListGroupMembers(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	if _, err := s.storage.GetGroup(r.Context(), userID, id); err != nil {
		writeStorageError(w, r, err, "group")
		return
	}

	members, err := s.storage.ListGroupMembers(r.Context(), id)
	if err != nil {
		writeStorageError(w, r, err, "group members")
		return
	}

	views := make([]memberView, len(members))
	for i, m := range members {
		views[i] = viewMember(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": views})
}

func (s *Server) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	group, err := s.storage.GetGroup(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}
	if !group.IsCreator {
		writeError(w, http.StatusForbidden, "only the creator can add members")
		return
	}

	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.storage.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no user with that email")
			return
		}
		writeStorageError(w, r, err, "user")
		return
	}

	already, err := s.storage.IsGroupMember(r.Context(), id, user.ID)
	if err != nil {
		writeStorageError(w, r, err, "group members")
		return
	}
	if already {
		writeError(w, http.StatusConflict, "user is already a member")
		return
	}

	if err := s.storage.AddGroupMember(r.Context(), id, user.ID); err != nil {
		writeStorageError(w, r, err, "group member")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "member added"})
}

// handleRemoveGroupMember lets the creator remove anyone but
// themselves; other members may only remove themselves.
func (s *Server) handleRemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")
	targetID := pathID(r, "userID")

	group, err := s.storage.GetGroup(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}

	if targetID == group.CreatedBy {
		writeError(w, http.StatusBadRequest, "the creator cannot be removed")
		return
	}
	if !group.IsCreator && targetID != userID {
		writeError(w, http.StatusForbidden, "members can only remove themselves")
		return
	}

	if err := s.storage.RemoveGroupMember(r.Context(), id, targetID); err != nil {
		writeStorageError(w, r, err, "group member")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "member removed"})
}

// handleGroupExpenseSummary splits the group's spending evenly and
// reports who owes whom relative to the fair share.
func (s *Server) handleGroupExpenseSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	group, err := s.storage.GetGroup(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "group")
		return
	}

	shares, err := s.storage.GroupMemberShares(r.Context(), id)
	if err != nil {
		writeStorageError(w, r, err, "group shares")
		return
	}

	transactions, err := s.storage.ListGroupTransactions(r.Context(), id, 0)
	if err != nil {
		writeStorageError(w, r, err, "group transactions")
		return
	}
	countByUser := map[int64]int{}
	for _, gt := range transactions {
		if gt.CategoryType == core.Expense {
			countByUser[gt.Transaction.UserID]++
		}
	}

	fairShare := 0.0
	if len(shares) > 0 {
		fairShare = core.Round2(group.TotalSpent / float64(len(shares)))
	}

	type memberSummary struct {
		UserID           int64   `json:"user_id"`
		Username         string  `json:"username"`
		TransactionCount int     `json:"transaction_count"`
		TotalExpenses    float64 `json:"total_expenses"`
		FairShare        float64 `json:"fair_share"`
		BalanceOwed      float64 `json:"balance_owed"`
	}
	summaries := make([]memberSummary, len(shares))
	for i, sh := range shares {
		summaries[i] = memberSummary{
			UserID:           sh.UserID,
			Username:         sh.Username,
			TransactionCount: countByUser[sh.UserID],
			TotalExpenses:    core.Round2(sh.Total),
			FairShare:        fairShare,
			BalanceOwed:      core.Round2(fairShare - sh.Total),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":    group.ID,
		"group_name":  group.Name,
		"total_spent": core.Round2(group.TotalSpent),
		"members":     summaries,
	})
}
