package http

import (
	"net/http"

	"budgetbook/internal/core"
)

type categoryTotalJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Amount float64 `json:"amount"`
}

type monthTotalJSON struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type dashboardResponse struct {
	Month          string              `json:"month"`
	Year           int                 `json:"year"`
	Income         *float64            `json:"income"`
	Expenses       *float64            `json:"expenses"`
	Balance        *float64            `json:"balance"`
	RemainingToPay *float64            `json:"remainingToPay"`
	ByCategory     []categoryTotalJSON `json:"byCategory"`
	MaxCategory    float64             `json:"maxCategory"`
	Yearly         []monthTotalJSON    `json:"yearly"`
	MaxYearly      float64             `json:"maxYearly"`
	ChartMode      string              `json:"chartMode"`
}

func (s *Server) buildDashboardResponse() dashboardResponse {
	byCategory := s.dashboard.ExpenseByCategory()
	catRows := make([]categoryTotalJSON, 0, len(byCategory))
	for _, row := range byCategory {
		catRows = append(catRows, categoryTotalJSON{
			ID:     row.ID,
			Name:   row.Name,
			Color:  row.Color,
			Amount: row.Amount,
		})
	}

	yearly := s.dashboard.YearlyTotals()
	yearRows := make([]monthTotalJSON, 0, len(yearly))
	for _, row := range yearly {
		yearRows = append(yearRows, monthTotalJSON{Month: row.Month, Amount: row.Amount})
	}

	return dashboardResponse{
		Month:          s.selection.Month(),
		Year:           s.selection.Year(),
		Income:         s.dashboard.MonthIncome(),
		Expenses:       s.dashboard.MonthExpenses(),
		Balance:        s.dashboard.MonthBalance(),
		RemainingToPay: s.dashboard.RemainingToPay(),
		ByCategory:     catRows,
		MaxCategory:    s.dashboard.MaxCategoryAmount(),
		Yearly:         yearRows,
		MaxYearly:      s.dashboard.MaxYearAmount(),
		ChartMode:      string(s.dashboard.ChartMode()),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	key := s.viewKey("dashboard", userID, string(s.dashboard.ChartMode()))
	if cached, found := s.viewCache.Get(key); found {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	if err := s.categories.LoadCategories(r.Context(), userID); err != nil {
		writeServiceError(w, err, s.categories.ErrorMessage())
		return
	}
	if err := s.dashboard.LoadMonth(r.Context()); err != nil {
		writeServiceError(w, err, "could not load the dashboard")
		return
	}
	if err := s.dashboard.LoadYear(r.Context()); err != nil {
		writeServiceError(w, err, "could not load the yearly overview")
		return
	}

	resp := s.buildDashboardResponse()
	if body, ok := encodeForCache(resp); ok {
		s.viewCache.Set(key, body)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type chartModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleChartMode(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req chartModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !s.dashboard.SetChartMode(core.EntryType(req.Mode)) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "mode must be income or expense"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"chartMode": req.Mode})
}
