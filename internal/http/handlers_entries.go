package http

import (
	"net/http"

	"budgetbook/internal/core"
	"budgetbook/internal/services"
	"budgetbook/internal/store"
)

type entryJSON struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Month         string  `json:"month"`
	Year          int     `json:"year"`
	DueDay        *int    `json:"dueDay"`
	CategoryID    string  `json:"categoryId"`
	CategoryName  string  `json:"categoryName"`
	CategoryColor string  `json:"categoryColor"`
}

type entriesResponse struct {
	Month         string      `json:"month"`
	Year          int         `json:"year"`
	Entries       []entryJSON `json:"entries"`
	Income        float64     `json:"income"`
	Expenses      float64     `json:"expenses"`
	Balance       float64     `json:"balance"`
	FilteredTotal float64     `json:"filteredTotal"`
	ActiveFilters []string    `json:"activeFilters"`
}

func (s *Server) entryToJSON(e core.Entry, nameByID, colorByID map[string]string) entryJSON {
	name, ok := nameByID[e.CategoryID]
	if !ok {
		name = core.UncategorizedCategoryName
	}
	return entryJSON{
		ID:            e.ID,
		Name:          e.Name,
		Amount:        e.AmountValue(),
		Type:          string(e.Type),
		Month:         e.Month,
		Year:          e.Year,
		DueDay:        e.DueDay,
		CategoryID:    e.CategoryID,
		CategoryName:  name,
		CategoryColor: colorByID[e.CategoryID],
	}
}

func (s *Server) buildEntriesResponse() entriesResponse {
	nameByID := s.categories.NameByID()
	colorByID := s.categories.ColorByID()

	visible := s.entries.Entries()
	entries := make([]entryJSON, 0, len(visible))
	for _, e := range visible {
		entries = append(entries, s.entryToJSON(e, nameByID, colorByID))
	}

	filters := s.entries.ActiveFilters()
	if filters == nil {
		filters = []string{}
	}
	return entriesResponse{
		Month:         s.selection.Month(),
		Year:          s.selection.Year(),
		Entries:       entries,
		Income:        s.entries.IncomeTotal(),
		Expenses:      s.entries.ExpenseTotal(),
		Balance:       s.entries.Balance(),
		FilteredTotal: s.entries.FilteredTotal(),
		ActiveFilters: filters,
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.categories.LoadCategories(r.Context(), userID); err != nil {
		writeServiceError(w, err, s.categories.ErrorMessage())
		return
	}
	if err := s.entries.LoadEntries(r.Context()); err != nil {
		writeServiceError(w, err, s.entries.ErrorMessage())
		return
	}
	writeJSON(w, http.StatusOK, s.buildEntriesResponse())
}

type createEntryRequest struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Type       string  `json:"type"`
	DueDay     *int    `json:"dueDay"`
	CategoryID string  `json:"categoryId"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := s.entries.SaveEntry(r.Context(), services.EntryInput{
		Name:       sanitizeInput(req.Name),
		Amount:     req.Amount,
		Type:       core.EntryType(req.Type),
		DueDay:     req.DueDay,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeServiceError(w, err, s.entries.ErrorMessage())
		return
	}

	nameByID := s.categories.NameByID()
	categoryName, ok := nameByID[created.CategoryID]
	if !ok {
		categoryName = core.UncategorizedCategoryName
	}
	s.structured.LogEntryCreated(r.Context(), created.Name, string(created.Type),
		created.AmountValue(), categoryName, created.Month, created.Year)

	s.invalidateViews(userID)
	writeJSON(w, http.StatusCreated, s.entryToJSON(created, nameByID, s.categories.ColorByID()))
}

type updateEntryRequest struct {
	Name       *string  `json:"name"`
	Amount     *float64 `json:"amount"`
	Type       *string  `json:"type"`
	DueDay     *int     `json:"dueDay"`
	ClearDue   bool     `json:"clearDueDay"`
	CategoryID *string  `json:"categoryId"`
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	var req updateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	patch := store.EntryPatch{
		Amount:     req.Amount,
		DueDay:     req.DueDay,
		SetDueDay:  req.DueDay != nil || req.ClearDue,
		CategoryID: req.CategoryID,
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		patch.Name = &name
	}
	if req.Type != nil {
		t := core.EntryType(*req.Type)
		if !t.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid entry type"})
			return
		}
		patch.Type = &t
	}

	updated, err := s.entries.UpdateEntry(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, err, s.entries.ErrorMessage())
		return
	}

	s.invalidateViews(userID)
	writeJSON(w, http.StatusOK, s.entryToJSON(updated, s.categories.NameByID(), s.categories.ColorByID()))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.entries.DeleteEntryByID(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err, s.entries.ErrorMessage())
		return
	}
	s.invalidateViews(userID)
	w.WriteHeader(http.StatusNoContent)
}

type copyMonthRequest struct {
	FromMonth string `json:"fromMonth"`
}

func (s *Server) handleCopyMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	var req copyMonthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	copied, err := s.entries.CopyMonth(r.Context(), req.FromMonth)
	if err != nil {
		writeServiceError(w, err, s.entries.ErrorMessage())
		return
	}

	s.invalidateViews(userID)
	writeJSON(w, http.StatusOK, map[string]int{"copied": copied})
}

func (s *Server) handleClearMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}
	if err := s.entries.ClearMonth(r.Context()); err != nil {
		writeServiceError(w, err, s.entries.ErrorMessage())
		return
	}
	s.invalidateViews(userID)
	w.WriteHeader(http.StatusNoContent)
}

type toggleFilterRequest struct {
	CategoryID string `json:"categoryId"`
}

func (s *Server) handleToggleFilter(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req toggleFilterRequest
	if err := decodeJSON(r, &req); err != nil || req.CategoryID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "categoryId is required"})
		return
	}

	active := s.entries.ToggleCategoryFilter(req.CategoryID)
	filters := s.entries.ActiveFilters()
	if filters == nil {
		filters = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":        active,
		"activeFilters": filters,
	})
}

func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	s.entries.ClearCategoryFilters()
	w.WriteHeader(http.StatusNoContent)
}
