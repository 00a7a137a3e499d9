package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type categoryRequest struct {
	Name string `json:"category_name"`
	Type string `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	categories, err := s.storage.ListCategories(r.Context(), userID)
	if err != nil {
		writeStorageError(w, r, err, "categories")
		return
	}

	views := make([]categoryView, len(categories))
	for i, c := range categories {
		views[i] = viewCategory(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": views})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := core.Category{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Type:   core.CategoryType(req.Type),
	}
	if err := category.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.storage.CreateCategory(r.Context(), category)
	if err != nil {
		writeStorageError(w, r, err, "category")
		return
	}
	category.ID = id

	writeJSON(w, http.StatusCreated, map[string]any{"category": viewCategory(category)})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	existing, err := s.storage.GetCategory(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "category")
		return
	}
	if existing.UserID == 0 {
		writeError(w, http.StatusForbidden, "system categories cannot be modified")
		return
	}

	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != "" {
		existing.Name = strings.TrimSpace(req.Name)
	}
	if req.Type != "" {
		existing.Type = core.CategoryType(req.Type)
	}
	if err := existing.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.storage.UpdateCategory(r.Context(), *existing); err != nil {
		writeStorageError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": viewCategory(*existing)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	id := pathID(r, "id")

	existing, err := s.storage.GetCategory(r.Context(), userID, id)
	if err != nil {
		writeStorageError(w, r, err, "category")
		return
	}
	if existing.UserID == 0 {
		writeError(w, http.StatusForbidden, "system categories cannot be deleted")
		return
	}

	inUse, err := s.storage.CategoryInUse(r.Context(), id)
	if err != nil {
		writeStorageError(w, r, err, "category")
		return
	}
	if inUse {
		writeError(w, http.StatusConflict, "category is still referenced by transactions, budgets or recurring payments")
		return
	}

	if err := s.storage.DeleteCategory(r.Context(), userID, id); err != nil {
		writeStorageError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
