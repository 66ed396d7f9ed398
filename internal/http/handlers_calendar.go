package http

import (
	"net/http"

	"budgetbook/internal/core"
)

type calendarCellJSON struct {
	Day   int      `json:"day"`
	Empty bool     `json:"empty"`
	Today bool     `json:"today"`
	Dots  []string `json:"dots,omitempty"`
}

type calendarBillJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	DueDay int     `json:"dueDay"`
}

type calendarResponse struct {
	Month         string             `json:"month"`
	Year          int                `json:"year"`
	Cells         []calendarCellJSON `json:"cells"`
	SelectedDay   int                `json:"selectedDay,omitempty"`
	SelectedLabel string             `json:"selectedLabel,omitempty"`
	SelectedBills []calendarBillJSON `json:"selectedBills,omitempty"`
}

func billsToJSON(bills []core.Entry) []calendarBillJSON {
	out := make([]calendarBillJSON, 0, len(bills))
	for _, b := range bills {
		day := 0
		if b.DueDay != nil {
			day = *b.DueDay
		}
		out = append(out, calendarBillJSON{
			ID:     b.ID,
			Name:   b.Name,
			Amount: b.AmountValue(),
			DueDay: day,
		})
	}
	return out
}

func (s *Server) buildCalendarResponse() calendarResponse {
	cells := s.calendar.Grid()
	dots := s.calendar.DotsByDay()

	out := make([]calendarCellJSON, 0, len(cells))
	for _, c := range cells {
		cell := calendarCellJSON{Day: c.Day, Empty: c.Empty, Today: c.Today}
		if !c.Empty {
			cell.Dots = dots[c.Day]
		}
		out = append(out, cell)
	}

	resp := calendarResponse{
		Month: s.selection.Month(),
		Year:  s.selection.Year(),
		Cells: out,
	}
	if day := s.calendar.SelectedDay(); day != 0 {
		resp.SelectedDay = day
		resp.SelectedLabel = s.calendar.SelectedLabel()
		resp.SelectedBills = billsToJSON(s.calendar.SelectedBills())
	}
	return resp
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUserID(w, r)
	if !ok {
		return
	}

	key := s.viewKey("calendar", userID)
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
	s.calendar.LoadBills(r.Context())

	resp := s.buildCalendarResponse()
	if body, ok := encodeForCache(resp); ok && s.calendar.SelectedDay() == 0 {
		s.viewCache.Set(key, body)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectDayRequest struct {
	Day int `json:"day"`
}

func (s *Server) handleSelectDay(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUserID(w, r); !ok {
		return
	}
	var req selectDayRequest
	if err := decodeJSON(r, &req); err != nil || req.Day < 1 || req.Day > 31 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "day must be between 1 and 31"})
		return
	}

	s.calendar.SelectDay(req.Day)
	resp := calendarResponse{
		Month:       s.selection.Month(),
		Year:        s.selection.Year(),
		SelectedDay: s.calendar.SelectedDay(),
	}
	if resp.SelectedDay != 0 {
		resp.SelectedLabel = s.calendar.SelectedLabel()
		resp.SelectedBills = billsToJSON(s.calendar.SelectedBills())
	}
	writeJSON(w, http.StatusOK, resp)
}
