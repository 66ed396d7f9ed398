package http

import (
	"net/http"

	"budgetbook/internal/core"
)

type categoryJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func categoryToJSON(c core.Category) categoryJSON {
	return categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.categories.LoadCategories(r.Context(), userID); err != nil {
		writeServiceError(w, err, s.categories.ErrorMessage())
		return
	}
	cats := s.categories.Categories()
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryToJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.categories.CreateCategory(r.Context(), userID, sanitizeInput(req.Name), req.Color)
	if err != nil {
		writeServiceError(w, err, s.categories.ErrorMessage())
		return
	}
	writeJSON(w, http.StatusCreated, categoryToJSON(created))
}

func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.categories.AddDefaultCategories(r.Context(), userID); err != nil {
		writeServiceError(w, err, s.categories.ErrorMessage())
		return
	}
	cats := s.categories.Categories()
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryToJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	id := r.PathValue("id")

	if req.Name != nil {
		if err := s.categories.RenameCategory(r.Context(), id, userID, sanitizeInput(*req.Name)); err != nil {
			writeServiceError(w, err, s.categories.ErrorMessage())
			return
		}
	}
	if req.Color != nil {
		if _, err := s.categories.UpdateCategoryColor(r.Context(), id, userID, *req.Color); err != nil {
			writeServiceError(w, err, s.categories.ErrorMessage())
			return
		}
	}

	s.invalidateViews(userID)
	for _, c := range s.categories.Categories() {
		if c.ID == id {
			writeJSON(w, http.StatusOK, categoryToJSON(c))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "category not found"})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.categories.DeleteCategory(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, err, s.categories.ErrorMessage())
		return
	}
	s.invalidateViews(userID)
	w.WriteHeader(http.StatusNoContent)
}
