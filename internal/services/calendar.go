package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetbook/internal/core"
	"budgetbook/internal/session"
	"budgetbook/internal/store"
)

// CalendarService renders the selected month as a Monday-first grid
// with the due bills attached to their days. A failed load shows an
// empty calendar instead of an error page.
type CalendarService struct {
	store      store.EntryStore
	session    *session.Session
	categories *CategoryService
	selection  *Selection
	logger     *slog.Logger
	now        func() time.Time

	mu          sync.Mutex
	bills       []core.Entry
	selectedDay int
}

func NewCalendarService(st store.EntryStore, sess *session.Session, cats *CategoryService, sel *Selection, logger *slog.Logger) *CalendarService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarService{
		store:      st,
		session:    sess,
		categories: cats,
		selection:  sel,
		logger:     logger,
		now:        time.Now,
	}
}

// LoadBills fetches the selected month's entries; the day buckets keep
// only the dated expenses. Errors are logged and the calendar renders
// empty.
func (s *CalendarService) LoadBills(ctx context.Context) {
	userID, err := s.session.UserID(ctx)
	if err != nil || userID == "" {
		s.setBills(nil)
		return
	}

	month := s.selection.Month()
	entries, err := s.store.ListEntries(ctx, month, userID)
	if err != nil {
		s.logger.Error("load calendar bills", "month", month, "error", err)
		s.setBills(nil)
		return
	}
	// The calendar shows the whole month's bills regardless of the
	// year stamp; only the grid itself is year-aware.
	s.setBills(entries)
}

// Grid returns the month's cells, padded to full weeks.
func (s *CalendarService) Grid() []core.CalendarCell {
	monthIndex := core.MonthIndex(s.selection.Month())
	if monthIndex < 0 {
		return nil
	}
	return core.MonthGrid(s.selection.Year(), monthIndex, s.now())
}

// BillsByDay maps due day to the bills falling on it.
func (s *CalendarService) BillsByDay() map[int][]core.Entry {
	return core.BillsByDay(s.loadedBills())
}

// DotsByDay maps due day to the category dot colors shown on the cell.
func (s *CalendarService) DotsByDay() map[int][]string {
	return core.BillDots(s.BillsByDay(), s.categories.ColorByID())
}

// SelectDay toggles the detail panel for a day. Selecting the same day
// twice closes it.
func (s *CalendarService) SelectDay(day int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedDay == day {
		s.selectedDay = 0
		return
	}
	s.selectedDay = day
}

// SelectedDay returns the open day, 0 when none.
func (s *CalendarService) SelectedDay() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedDay
}

// SelectedBills returns the bills of the open day.
func (s *CalendarService) SelectedBills() []core.Entry {
	day := s.SelectedDay()
	if day == 0 {
		return nil
	}
	return s.BillsByDay()[day]
}

// SelectedLabel is the heading for the detail panel, like
// "March 14, 2025".
func (s *CalendarService) SelectedLabel() string {
	day := s.SelectedDay()
	if day == 0 {
		return ""
	}
	return fmt.Sprintf("%s %d, %d", s.selection.Month(), day, s.selection.Year())
}

func (s *CalendarService) loadedBills() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.bills))
	copy(out, s.bills)
	return out
}

func (s *CalendarService) setBills(bills []core.Entry) {
	s.mu.Lock()
	s.bills = bills
	s.selectedDay = 0
	s.mu.Unlock()
}
