package http

import (
	"math"
	"net/http"
	"time"

	"budgetbook/internal/core"
)

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.session.User(r.Context())
	if err != nil {
		writeServiceError(w, err, "could not resolve the current user")
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not signed in"})
		return
	}
	writeJSON(w, http.StatusOK, userJSON{ID: user.ID, Email: user.Email, Name: user.Name})
}

type selectionResponse struct {
	Month         string   `json:"month"`
	Year          int      `json:"year"`
	CurrentYear   int      `json:"currentYear"`
	ShowAllMonths bool     `json:"showAllMonths"`
	VisibleMonths []string `json:"visibleMonths"`
	Years         []int    `json:"years"`
}

func (s *Server) buildSelectionResponse() selectionResponse {
	return selectionResponse{
		Month:         s.selection.Month(),
		Year:          s.selection.Year(),
		CurrentYear:   s.selection.CurrentYear(),
		ShowAllMonths: s.selection.ShowAllMonths(),
		VisibleMonths: s.selection.VisibleMonths(time.Now()),
		Years:         s.selection.Years(),
	}
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.buildSelectionResponse())
}

type putSelectionRequest struct {
	Month         *string `json:"month"`
	Year          *int    `json:"year"`
	ShowAllMonths *bool   `json:"showAllMonths"`
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req putSelectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Month != nil && !s.selection.SetMonth(*req.Month) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "unknown month"})
		return
	}
	if req.Year != nil {
		s.selection.SetYear(*req.Year)
	}
	if req.ShowAllMonths != nil {
		s.selection.SetShowAllMonths(*req.ShowAllMonths)
	}
	writeJSON(w, http.StatusOK, s.buildSelectionResponse())
}

type preferencesJSON struct {
	Currency     string  `json:"currency"`
	SavingsRate  float64 `json:"savingsRate"`
	ShowDecimals bool    `json:"showDecimals"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	prefs, err := s.session.Preferences(r.Context())
	if err != nil {
		writeServiceError(w, err, "could not load preferences")
		return
	}
	writeJSON(w, http.StatusOK, preferencesJSON{
		Currency:     prefs.Currency,
		SavingsRate:  prefs.SavingsRate,
		ShowDecimals: prefs.ShowDecimals,
	})
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req preferencesJSON
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Currency == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "currency is required"})
		return
	}
	if math.IsNaN(req.SavingsRate) || req.SavingsRate < 0 || req.SavingsRate > 100 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "savingsRate must be between 0 and 100"})
		return
	}

	prefs := core.Preferences{
		Currency:     req.Currency,
		SavingsRate:  req.SavingsRate,
		ShowDecimals: req.ShowDecimals,
	}
	if err := s.session.SavePreferences(r.Context(), prefs); err != nil {
		writeServiceError(w, err, "could not save preferences")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
